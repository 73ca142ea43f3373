package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Channel delivers outbound actions to the messaging provider.
// The runtime emits requests, and the host implements this interface to send them.
type Channel interface {
	Send(ctx context.Context, conversationID string, actions []domain.ActionRequest) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, conversationID string, actions []domain.ActionRequest) error

func (f ChannelFunc) Send(ctx context.Context, conversationID string, actions []domain.ActionRequest) error {
	return f(ctx, conversationID, actions)
}
