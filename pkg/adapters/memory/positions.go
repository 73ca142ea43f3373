package memory

import (
	"context"
	"sync"

	"github.com/aretw0/chatflow/pkg/domain"
)

// PositionStore implements ports.PositionStore in memory.
// Safe for concurrent use.
type PositionStore struct {
	data map[string]*domain.Position
	mu   sync.RWMutex
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Save persists a copy of the position.
func (s *PositionStore) Save(ctx context.Context, pos *domain.Position) error {
	copied := pos.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pos.ConversationID] = copied
	return nil
}

// Load returns a copy so callers can't mutate stored state through the pointer.
func (s *PositionStore) Load(ctx context.Context, conversationID string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	return pos.Snapshot(), nil
}

// Delete removes the position.
func (s *PositionStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the conversations with a stored position.
func (s *PositionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
