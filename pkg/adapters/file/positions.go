package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

// PositionStore implements ports.PositionStore using the local filesystem.
// It stores one JSON file per conversation in a configured directory.
type PositionStore struct {
	BasePath string
}

// NewPositionStore creates a new PositionStore with the given base path.
// If basePath is empty, it defaults to ".chatflow/positions".
func NewPositionStore(basePath string) *PositionStore {
	if basePath == "" {
		basePath = filepath.Join(".chatflow", "positions")
	}
	return &PositionStore{BasePath: basePath}
}

func (s *PositionStore) path(conversationID string) string {
	// Conversation ids are phone numbers or provider ids; escape anything
	// that is not safe in a file name.
	return filepath.Join(s.BasePath, url.PathEscape(conversationID)+".json")
}

// Save persists the position atomically.
func (s *PositionStore) Save(ctx context.Context, pos *domain.Position) error {
	if pos.ConversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	data, err := json.MarshalIndent(pos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}
	return writeAtomic(s.path(pos.ConversationID), data)
}

// Load retrieves the position from its JSON file.
func (s *PositionStore) Load(ctx context.Context, conversationID string) (*domain.Position, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversationID cannot be empty")
	}

	data, err := os.ReadFile(s.path(conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to read position file: %w", err)
	}
	return codec.JSONCodec{}.Decode(data)
}

// Delete removes the position file. Missing files are not an error.
func (s *PositionStore) Delete(ctx context.Context, conversationID string) error {
	if err := removeIfExists(s.path(conversationID)); err != nil {
		return fmt.Errorf("failed to delete position file: %w", err)
	}
	return nil
}

// List returns the conversations with a position file.
func (s *PositionStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read positions directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
