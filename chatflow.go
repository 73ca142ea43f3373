package chatflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/conversation"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graphstore"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/router"
	"github.com/aretw0/chatflow/pkg/session"
)

// App is the high-level entry point for the chatflow library.
// It wires the graph store, trigger router, interpreter and conversation
// service over the configured storage adapters.
type App struct {
	flows         *graphstore.Store
	router        *router.Router
	engine        *runtime.Engine
	sessions      *session.Manager
	conversations *conversation.Service
}

// Option defines a functional option for configuring the App.
type Option func(*options)

type options struct {
	flowRepo  ports.FlowRepository
	positions ports.PositionStore
	locker    ports.DistributedLocker
	channel   ports.Channel
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	clock     func() time.Time
	cacheSize int
	maxSteps  int
	reprompt  bool
	policy    conversation.InterruptPolicy
}

// WithFlowRepository sets where flows are persisted (default: in memory).
func WithFlowRepository(repo ports.FlowRepository) Option {
	return func(o *options) {
		o.flowRepo = repo
	}
}

// WithPositionStore sets where conversation positions are persisted (default: in memory).
func WithPositionStore(store ports.PositionStore) Option {
	return func(o *options) {
		o.positions = store
	}
}

// WithLocker serializes conversations across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithChannel sets where outbound actions are delivered.
func WithChannel(ch ports.Channel) Option {
	return func(o *options) {
		o.channel = ch
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the clock of every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithCacheSize bounds the flow cache. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithMaxSteps bounds the nodes entered while handling one event.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithReprompt controls whether a no-match re-sends the pending prompt.
func WithReprompt(enabled bool) Option {
	return func(o *options) {
		o.reprompt = enabled
	}
}

// WithInterruptPolicy sets how a trigger keyword is handled mid-flow.
func WithInterruptPolicy(p conversation.InterruptPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// New wires an App.
func New(opts ...Option) (*App, error) {
	o := options{
		logger:    logging.NewNop(),
		clock:     time.Now,
		cacheSize: graphstore.DefaultCacheSize,
		maxSteps:  runtime.DefaultMaxSteps,
		reprompt:  true,
		policy:    conversation.InterruptIgnore,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.flowRepo == nil {
		o.flowRepo = memory.NewFlowRepository()
	}
	if o.positions == nil {
		o.positions = memory.NewPositionStore()
	}

	flows, err := graphstore.New(o.flowRepo,
		graphstore.WithLogger(o.logger),
		graphstore.WithClock(o.clock),
		graphstore.WithCacheSize(o.cacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph store: %w", err)
	}

	sessionOpts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(o.locker))
	}

	app := &App{
		flows:    flows,
		router:   router.New(flows, router.WithLogger(o.logger), router.WithLifecycleHooks(o.hooks)),
		sessions: session.NewManager(o.positions, sessionOpts...),
		engine: runtime.NewEngine(
			runtime.WithLogger(o.logger),
			runtime.WithLifecycleHooks(o.hooks),
			runtime.WithMaxSteps(o.maxSteps),
			runtime.WithReprompt(o.reprompt),
			runtime.WithClock(o.clock),
		),
	}

	convOpts := []conversation.Option{
		conversation.WithInterruptPolicy(o.policy),
		conversation.WithLogger(o.logger),
		conversation.WithClock(o.clock),
	}
	if o.channel != nil {
		convOpts = append(convOpts, conversation.WithChannel(o.channel))
	}
	app.conversations = conversation.New(app.sessions, flows, app.router, app.engine, convOpts...)
	return app, nil
}

// Flows returns the graph store.
func (a *App) Flows() *graphstore.Store { return a.flows }

// Conversations returns the conversation service.
func (a *App) Conversations() *conversation.Service { return a.conversations }

// Router returns the trigger router.
func (a *App) Router() *router.Router { return a.router }

// Interpreter returns the flow interpreter.
func (a *App) Interpreter() ports.Interpreter { return a.engine }

// HandleInbound processes one inbound event.
func (a *App) HandleInbound(ctx context.Context, ev domain.InboundEvent) (*domain.Step, error) {
	return a.conversations.HandleInbound(ctx, ev)
}

// Resolve returns a conversation to Idle.
func (a *App) Resolve(ctx context.Context, conversationID string) error {
	return a.conversations.Resolve(ctx, conversationID)
}

// Timeout escalates a conversation awaiting a reply to a human.
func (a *App) Timeout(ctx context.Context, conversationID string) (*domain.Step, error) {
	return a.conversations.Timeout(ctx, conversationID)
}
