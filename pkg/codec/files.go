package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the text encoding of a record.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes a flow as a record in the given format.
func Marshal(f *domain.Flow, format Format) ([]byte, error) {
	rec, err := FromFlow(f)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return yaml.Marshal(rec)
	}
	return json.MarshalIndent(rec, "", "  ")
}

// Unmarshal decodes a record in the given format and parses it into a flow.
func Unmarshal(data []byte, format Format) (*domain.Flow, error) {
	var rec Record
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &rec)
	} else {
		err = json.Unmarshal(data, &rec)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", format, err)
	}
	return rec.ToFlow()
}

// ReadFile loads a flow from a JSON or YAML file.
func ReadFile(path string) (*domain.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Unmarshal(data, FormatFor(path))
}

// WriteFile stores a flow as a JSON or YAML file.
func WriteFile(path string, f *domain.Flow) error {
	data, err := Marshal(f, FormatFor(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
