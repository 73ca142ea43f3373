package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// DefaultMaxSteps bounds the number of nodes entered while handling one event.
const DefaultMaxSteps = 64

// ErrNoPosition is returned when Resume or Timeout is called without a position.
var ErrNoPosition = errors.New("runtime: position is required")

// Engine is the core state machine runner.
type Engine struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxSteps int
	reprompt bool
	now      func() time.Time
}

var _ ports.Interpreter = (*Engine)(nil)

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps bounds auto-advance. Values below one restore the default.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = DefaultMaxSteps
		}
		e.maxSteps = n
	}
}

// WithReprompt controls whether an unmatched reply re-emits the pending prompt.
func WithReprompt(enabled bool) Option {
	return func(e *Engine) {
		e.reprompt = enabled
	}
}

// WithClock overrides the clock used to stamp positions and events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
		reprompt: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Activate starts a conversation at the flow's trigger and auto-advances
// from the trigger's single outgoing target.
func (e *Engine) Activate(ctx context.Context, flow *domain.Flow, ev domain.InboundEvent) (*domain.Step, error) {
	trigger, ok := flow.Trigger()
	if !ok {
		return nil, fmt.Errorf("flow %q has no trigger node", flow.Name)
	}

	now := e.now()
	pos := domain.NewPosition(ev.ConversationID, flow.Tenant, flow.Name, trigger.ID)
	pos.Contact = ev.Contact
	pos.LastInbound = ev.Body()
	pos.StartedAt = now
	pos.UpdatedAt = now

	r := e.newRun(ctx, flow, pos)
	e.logger.Debug("Activating flow", "flow", flow.Name, "conversation_id", ev.ConversationID, "trigger", trigger.ID)
	if e.hooks.OnActivate != nil {
		e.hooks.OnActivate(ctx, r.conversationEvent(domain.EventActivate, ""))
	}

	return r.advance(trigger), nil
}

// Resume feeds an inbound event to a stored position.
//
// Malformed or unmatched replies are not errors: the step reports
// OutcomeNoMatch and the position is returned unchanged.
func (e *Engine) Resume(ctx context.Context, flow *domain.Flow, pos *domain.Position, ev domain.InboundEvent) (*domain.Step, error) {
	if pos == nil {
		return nil, ErrNoPosition
	}

	switch pos.Status {
	case domain.StatusPaused:
		e.logger.Debug("Ignoring event for paused conversation", "flow", pos.FlowName, "conversation_id", pos.ConversationID)
		return &domain.Step{Position: pos.Snapshot(), Outcome: domain.OutcomeIgnored}, nil
	case domain.StatusCompleted:
		return &domain.Step{Position: pos.Snapshot(), Outcome: domain.OutcomeCompleted}, nil
	}

	next := pos.Snapshot()
	next.UpdatedAt = e.now()
	if ev.Contact != (domain.Contact{}) {
		next.Contact = ev.Contact
	}
	r := e.newRun(ctx, flow, next)

	node, ok := flow.Node(next.CurrentNodeID)
	if !ok {
		e.logger.Warn("Position points at a node the flow no longer has",
			"flow", flow.Name,
			"conversation_id", next.ConversationID,
			"node_id", next.CurrentNodeID,
		)
		return r.complete(), nil
	}

	if next.Status == domain.StatusActive {
		// Stored mid chain, e.g. by a crash between save and delivery.
		return r.advance(node), nil
	}

	return e.reply(r, pos, node, ev), nil
}

// Timeout escalates a conversation that waited too long for a reply.
// Positions that are not awaiting a reply are returned unchanged.
func (e *Engine) Timeout(ctx context.Context, flow *domain.Flow, pos *domain.Position) (*domain.Step, error) {
	if pos == nil {
		return nil, ErrNoPosition
	}
	if pos.Status != domain.StatusAwaiting {
		return &domain.Step{Position: pos.Snapshot(), Outcome: domain.OutcomeIgnored}, nil
	}

	next := pos.Snapshot()
	next.UpdatedAt = e.now()
	r := e.newRun(ctx, flow, next)
	return r.pause(domain.HandoffReplyTimeout), nil
}

// Resolve returns a conversation to Idle, e.g. after a human agent closed it.
func (e *Engine) Resolve(ctx context.Context, pos *domain.Position) *domain.Step {
	if pos != nil {
		e.logger.Info("Conversation resolved", "flow", pos.FlowName, "conversation_id", pos.ConversationID)
		if e.hooks.OnReset != nil {
			e.hooks.OnReset(ctx, &domain.ConversationEvent{
				EventBase: domain.EventBase{
					Timestamp:      e.now(),
					Type:           domain.EventConversationReset,
					ConversationID: pos.ConversationID,
				},
				FlowName: pos.FlowName,
				NodeID:   pos.CurrentNodeID,
			})
		}
	}
	return &domain.Step{Outcome: domain.OutcomeResolved}
}
