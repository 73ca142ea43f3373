package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// PositionStore defines the interface for persisting conversation positions.
// This is what lets a conversation stay suspended for days and survive restarts.
type PositionStore interface {
	// Save persists the position under its ConversationID.
	Save(ctx context.Context, pos *domain.Position) error

	// Load retrieves the position of a conversation.
	// Returns domain.ErrPositionNotFound if there is none.
	Load(ctx context.Context, conversationID string) (*domain.Position, error)

	// Delete removes the position of a conversation.
	Delete(ctx context.Context, conversationID string) error

	// List returns the ids of every conversation with a stored position.
	List(ctx context.Context) ([]string, error)
}
