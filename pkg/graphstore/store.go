package graphstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/schema"
	"github.com/aretw0/chatflow/pkg/validator"
)

// DefaultCacheSize is the number of flows kept in the read cache.
const DefaultCacheSize = 256

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Store checks, serializes and caches writes to a ports.FlowRepository.
// It satisfies ports.FlowRepository and ports.ActiveFlowSource itself.
//
// Flows returned by Get and ListActive are shared with the cache and must be
// treated as read-only. Clone before modifying.
type Store struct {
	repo   ports.FlowRepository
	logger *slog.Logger
	now    func() time.Time

	cacheSize int
	flows     *lru.Cache[domain.Key, *domain.Flow]
	active    *lru.Cache[string, []*domain.Flow]

	// gen counts writes per tenant. A read only fills the cache when no write
	// happened between its repository fetch and the fill.
	cacheMu sync.Mutex
	gen     map[string]uint64

	locksMu sync.Mutex
	locks   map[domain.Key]*keyLock
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the clock used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCacheSize sets the number of cached flows. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		s.cacheSize = n
	}
}

// New creates a Store over repo.
func New(repo ports.FlowRepository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:      repo,
		logger:    logging.NewNop(),
		now:       time.Now,
		cacheSize: DefaultCacheSize,
		gen:       make(map[string]uint64),
		locks:     make(map[domain.Key]*keyLock),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cacheSize > 0 {
		var err error
		if s.flows, err = lru.New[domain.Key, *domain.Flow](s.cacheSize); err != nil {
			return nil, fmt.Errorf("create flow cache: %w", err)
		}
		if s.active, err = lru.New[string, []*domain.Flow](s.cacheSize); err != nil {
			return nil, fmt.Errorf("create active flow cache: %w", err)
		}
	}
	return s, nil
}

// Get returns the flow, from cache when possible.
func (s *Store) Get(ctx context.Context, tenant, name string) (*domain.Flow, error) {
	key := domain.Key{Tenant: tenant, Name: name}
	if s.flows != nil {
		if f, ok := s.flows.Get(key); ok {
			return f, nil
		}
	}

	gen := s.generation(tenant)
	f, err := s.repo.Get(ctx, tenant, name)
	if err != nil {
		return nil, err
	}
	f.Reindex()
	s.fill(tenant, gen, func() { s.flows.Add(key, f) })
	return f, nil
}

// List returns every flow of the tenant, ordered by name.
func (s *Store) List(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	flows, err := s.repo.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	sortByName(flows)
	return flows, nil
}

// ListActive returns the tenant's active flows, ordered by name.
func (s *Store) ListActive(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	if s.active != nil {
		if flows, ok := s.active.Get(tenant); ok {
			return flows, nil
		}
	}

	gen := s.generation(tenant)
	all, err := s.repo.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	active := make([]*domain.Flow, 0, len(all))
	for _, f := range all {
		if f.IsActive {
			f.Reindex()
			active = append(active, f)
		}
	}
	sortByName(active)
	s.fill(tenant, gen, func() { s.active.Add(tenant, active) })
	return active, nil
}

// Put checks and stores a full replacement of the flow. The caller's flow is
// not modified; the stored copy gets its trigger keyword re-derived from the
// trigger node and UpdatedAt set to the current time.
func (s *Store) Put(ctx context.Context, flow *domain.Flow) error {
	unlock := s.lock(flow.Key())
	defer unlock()
	return s.put(ctx, flow.Clone())
}

// SetActive toggles activation of a stored flow. Activating runs the validator.
func (s *Store) SetActive(ctx context.Context, tenant, name string, active bool) error {
	unlock := s.lock(domain.Key{Tenant: tenant, Name: name})
	defer unlock()

	current, err := s.repo.Get(ctx, tenant, name)
	if err != nil {
		return err
	}
	if current.IsActive == active {
		return nil
	}
	next := current.Clone()
	next.IsActive = active
	return s.put(ctx, next)
}

// Delete removes the flow. Deleting a missing flow is not an error.
func (s *Store) Delete(ctx context.Context, tenant, name string) error {
	unlock := s.lock(domain.Key{Tenant: tenant, Name: name})
	defer unlock()

	if err := s.repo.Delete(ctx, tenant, name); err != nil {
		return fmt.Errorf("delete flow %q: %w", name, err)
	}
	s.invalidate(tenant, name)
	s.logger.Info("Flow deleted", "tenant", tenant, "flow", name)
	return nil
}

// put runs the write pipeline. The caller holds the key lock and owns f.
func (s *Store) put(ctx context.Context, f *domain.Flow) error {
	if err := CheckIntegrity(f); err != nil {
		return err
	}
	if err := schema.ValidateFlow(f); err != nil {
		return err
	}

	f.TriggerKeyword = ""
	if trigger, ok := f.Trigger(); ok {
		f.TriggerKeyword = trigger.Data.(domain.TriggerData).Keyword
	}
	f.UpdatedAt = s.now().UTC()
	f.Reindex()

	if f.IsActive {
		report := validator.Validate(f)
		if report.HasErrors() {
			return &ActivationError{Tenant: f.Tenant, Flow: f.Name, Issues: report.Errors()}
		}
		for _, w := range report.Warnings() {
			s.logger.Debug("Flow warning", "flow", f.Name, "kind", w.Kind, "node_id", w.NodeID, "message", w.Message)
		}
	}

	if err := s.repo.Put(ctx, f); err != nil {
		return fmt.Errorf("store flow %q: %w", f.Name, err)
	}
	s.invalidate(f.Tenant, f.Name)
	s.logger.Info("Flow saved",
		"tenant", f.Tenant,
		"flow", f.Name,
		"active", f.IsActive,
		"nodes", len(f.Nodes),
		"edges", len(f.Edges),
	)
	return nil
}

func (s *Store) lock(key domain.Key) func() {
	s.locksMu.Lock()
	entry, ok := s.locks[key]
	if !ok {
		entry = &keyLock{}
		s.locks[key] = entry
	}
	entry.refs++
	s.locksMu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		s.locksMu.Lock()
		entry.refs--
		if entry.refs <= 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}

func (s *Store) generation(tenant string) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gen[tenant]
}

func (s *Store) fill(tenant string, gen uint64, add func()) {
	if s.cacheSize <= 0 {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen[tenant] == gen {
		add()
	}
}

func (s *Store) invalidate(tenant, name string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen[tenant]++
	if s.cacheSize <= 0 {
		return
	}
	s.flows.Remove(domain.Key{Tenant: tenant, Name: name})
	s.active.Remove(tenant)
}

func sortByName(flows []*domain.Flow) {
	sort.Slice(flows, func(i, j int) bool { return flows[i].Name < flows[j].Name })
}

// IsNotFound reports whether err means the flow does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrFlowNotFound)
}
