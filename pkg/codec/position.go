package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes conversation positions for byte-oriented stores.
type Codec interface {
	Encode(p *domain.Position) ([]byte, error)
	Decode(data []byte) (*domain.Position, error)
	Name() string
}

// JSONCodec is the default, human-readable position codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(p *domain.Position) ([]byte, error) {
	return json.Marshal(p)
}

func (JSONCodec) Decode(data []byte) (*domain.Position, error) {
	var p domain.Position
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode position: %w", err)
	}
	return normalize(&p), nil
}

// MsgpackCodec is a compact binary position codec. It reuses the json tags
// so both codecs agree on field names.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(p *domain.Position) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to encode position: %w", err)
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Decode(data []byte) (*domain.Position, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var p domain.Position
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode position: %w", err)
	}
	return normalize(&p), nil
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown position codec %q", name)
}

func normalize(p *domain.Position) *domain.Position {
	if p.Variables == nil {
		p.Variables = make(map[string]string)
	}
	return p
}
