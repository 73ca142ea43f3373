package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/session"
)

// ErrMissingConversation is returned for events without a conversation id.
var ErrMissingConversation = errors.New("conversation id is required")

// Router selects the flow an idle conversation starts.
type Router interface {
	Route(ctx context.Context, tenant, text string) (*domain.Flow, error)
}

// sweepConcurrency bounds the conversations ExpireStale handles at once.
const sweepConcurrency = 8

// Service handles inbound events for many conversations.
type Service struct {
	sessions *session.Manager
	flows    ports.FlowReader
	router   Router
	engine   ports.Interpreter
	channel  ports.Channel

	policy InterruptPolicy
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithChannel sets where outbound actions are delivered. Without a channel
// actions are only returned to the caller.
func WithChannel(ch ports.Channel) Option {
	return func(s *Service) {
		s.channel = ch
	}
}

// WithInterruptPolicy sets the interrupt policy.
func WithInterruptPolicy(p InterruptPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used by ExpireStale.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(sessions *session.Manager, flows ports.FlowReader, router Router, engine ports.Interpreter, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		flows:    flows,
		router:   router,
		engine:   engine,
		policy:   InterruptIgnore,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleInbound processes one inbound event.
func (s *Service) HandleInbound(ctx context.Context, ev domain.InboundEvent) (*domain.Step, error) {
	if ev.ConversationID == "" {
		return nil, ErrMissingConversation
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = s.now()
	}

	var step *domain.Step
	err := s.sessions.WithLock(ctx, ev.ConversationID, func(ctx context.Context) error {
		var err error
		step, err = s.handle(ctx, ev)
		if err != nil {
			return err
		}
		return s.commit(ctx, ev.ConversationID, step)
	})
	return step, err
}

func (s *Service) handle(ctx context.Context, ev domain.InboundEvent) (*domain.Step, error) {
	logger := s.logger.With("conversation_id", ev.ConversationID)
	store := s.sessions.Store()

	pos, err := store.Load(ctx, ev.ConversationID)
	switch {
	case errors.Is(err, domain.ErrPositionNotFound):
		return s.activate(ctx, ev)
	case err != nil:
		return nil, fmt.Errorf("load position: %w", err)
	}

	if s.policy == InterruptRestart && pos.Status == domain.StatusAwaiting {
		flow, err := s.router.Route(ctx, tenantOf(ev, pos), ev.Body())
		if err == nil && flow.Name != pos.FlowName {
			logger.Info("Interrupting conversation with another flow", "from", pos.FlowName, "to", flow.Name)
			return s.engine.Activate(ctx, flow, ev)
		}
		if err != nil && !errors.Is(err, domain.ErrNoRoute) {
			return nil, err
		}
	}

	flow, err := s.flows.Get(ctx, pos.Tenant, pos.FlowName)
	if errors.Is(err, domain.ErrFlowNotFound) {
		logger.Warn("Discarding position of a flow that no longer exists", "flow", pos.FlowName)
		if err := store.Delete(ctx, ev.ConversationID); err != nil {
			return nil, fmt.Errorf("delete position: %w", err)
		}
		return s.activate(ctx, ev)
	}
	if err != nil {
		return nil, fmt.Errorf("load flow %q: %w", pos.FlowName, err)
	}
	return s.engine.Resume(ctx, flow, pos, ev)
}

func (s *Service) activate(ctx context.Context, ev domain.InboundEvent) (*domain.Step, error) {
	flow, err := s.router.Route(ctx, ev.Tenant, ev.Body())
	if errors.Is(err, domain.ErrNoRoute) {
		s.logger.Debug("No flow matches inbound message", "conversation_id", ev.ConversationID, "tenant", ev.Tenant)
		return &domain.Step{Outcome: domain.OutcomeUnrouted}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.engine.Activate(ctx, flow, ev)
}

// commit persists the step and delivers its actions. The caller holds the
// conversation lock.
func (s *Service) commit(ctx context.Context, conversationID string, step *domain.Step) error {
	store := s.sessions.Store()
	switch {
	case step.Outcome == domain.OutcomeUnrouted:
		return nil
	case step.Terminal():
		if err := store.Delete(ctx, conversationID); err != nil {
			s.logger.Error("Failed to delete position", "conversation_id", conversationID, "err", err)
			return fmt.Errorf("delete position: %w", err)
		}
	case step.Outcome == domain.OutcomeNoMatch || step.Outcome == domain.OutcomeIgnored:
		// Position unchanged.
	default:
		if err := store.Save(ctx, step.Position); err != nil {
			s.logger.Error("Failed to save position", "conversation_id", conversationID, "err", err)
			return fmt.Errorf("save position: %w", err)
		}
	}

	if s.channel == nil || len(step.Actions) == 0 {
		return nil
	}
	if err := s.channel.Send(ctx, conversationID, step.Actions); err != nil {
		s.logger.Error("Failed to deliver actions", "conversation_id", conversationID, "actions", len(step.Actions), "err", err)
		return fmt.Errorf("deliver actions: %w", err)
	}
	return nil
}

// Resolve returns a conversation to Idle. Resolving an idle conversation is not an error.
func (s *Service) Resolve(ctx context.Context, conversationID string) error {
	return s.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		pos, err := s.sessions.Store().Load(ctx, conversationID)
		if errors.Is(err, domain.ErrPositionNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		return s.commit(ctx, conversationID, s.engine.Resolve(ctx, pos))
	})
}

// Timeout escalates a conversation awaiting a reply to a human.
func (s *Service) Timeout(ctx context.Context, conversationID string) (*domain.Step, error) {
	var step *domain.Step
	err := s.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		step, err = s.timeout(ctx, conversationID, 0)
		return err
	})
	return step, err
}

// timeout applies a reply timeout when the position has waited longer than
// olderThan. The caller holds the conversation lock.
func (s *Service) timeout(ctx context.Context, conversationID string, olderThan time.Duration) (*domain.Step, error) {
	pos, err := s.sessions.Store().Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if pos.Status != domain.StatusAwaiting || s.now().Sub(pos.UpdatedAt) < olderThan {
		return &domain.Step{Position: pos, Outcome: domain.OutcomeIgnored}, nil
	}

	flow, err := s.flows.Get(ctx, pos.Tenant, pos.FlowName)
	if err != nil {
		return nil, fmt.Errorf("load flow %q: %w", pos.FlowName, err)
	}
	step, err := s.engine.Timeout(ctx, flow, pos)
	if err != nil {
		return nil, err
	}
	return step, s.commit(ctx, conversationID, step)
}

// Position returns the stored position of a conversation.
func (s *Service) Position(ctx context.Context, conversationID string) (*domain.Position, error) {
	return s.sessions.Load(ctx, conversationID)
}

// ExpireStale times out every conversation that has awaited a reply for
// longer than olderThan and returns how many were escalated.
func (s *Service) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list positions: %w", err)
	}

	var expired atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			return s.sessions.WithLock(ctx, id, func(ctx context.Context) error {
				step, err := s.timeout(ctx, id, olderThan)
				if errors.Is(err, domain.ErrPositionNotFound) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("expire %s: %w", id, err)
				}
				if step.Outcome == domain.OutcomePaused {
					expired.Add(1)
				}
				return nil
			})
		})
	}
	err = g.Wait()
	if n := expired.Load(); n > 0 {
		s.logger.Info("Expired stale conversations", "count", n, "older_than", olderThan)
	}
	return int(expired.Load()), err
}

func tenantOf(ev domain.InboundEvent, pos *domain.Position) string {
	if ev.Tenant != "" {
		return ev.Tenant
	}
	return pos.Tenant
}
