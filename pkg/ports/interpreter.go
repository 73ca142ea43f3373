package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Interpreter is the flow state machine. It never blocks on I/O; suspensions
// are returned as positions for the caller to persist.
type Interpreter interface {
	// Activate starts a conversation at the flow's trigger.
	Activate(ctx context.Context, flow *domain.Flow, ev domain.InboundEvent) (*domain.Step, error)

	// Resume feeds an inbound event to a stored position.
	Resume(ctx context.Context, flow *domain.Flow, pos *domain.Position, ev domain.InboundEvent) (*domain.Step, error)

	// Timeout reports that a suspended conversation waited too long for a reply.
	Timeout(ctx context.Context, flow *domain.Flow, pos *domain.Position) (*domain.Step, error)

	// Resolve returns a conversation to Idle after an external resolve signal.
	Resolve(ctx context.Context, pos *domain.Position) *domain.Step
}
