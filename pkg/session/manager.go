package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
)

// DefaultLockTTL is how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to conversation positions. Local mutexes are
// reference counted and dropped once no caller holds them.
type Manager struct {
	store ports.PositionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager with the given position store.
func NewManager(store ports.PositionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// hold returns the local mutex of a conversation with its reference taken.
// The returned release drops the reference and must run after Unlock.
func (m *Manager) hold(conversationID string) (*lockEntry, func()) {
	m.mu.Lock()
	entry, ok := m.locks[conversationID]
	if !ok {
		entry = &lockEntry{}
		m.locks[conversationID] = entry
	}
	entry.refs++
	m.mu.Unlock()

	return entry, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if entry.refs--; entry.refs <= 0 {
			delete(m.locks, conversationID)
		}
	}
}

// Load retrieves the position of a conversation.
func (m *Manager) Load(ctx context.Context, conversationID string) (*domain.Position, error) {
	var pos *domain.Position
	err := m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		pos, err = m.store.Load(ctx, conversationID)
		return err
	})
	return pos, err
}

// Save persists the position.
func (m *Manager) Save(ctx context.Context, pos *domain.Position) error {
	return m.WithLock(ctx, pos.ConversationID, func(ctx context.Context) error {
		return m.store.Save(ctx, pos)
	})
}

// Delete removes the position of a conversation.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Delete(ctx, conversationID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying position store. Use it inside WithLock,
// where calling the Manager's own methods would deadlock.
func (m *Manager) Store() ports.PositionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the conversation.
func (m *Manager) WithLock(ctx context.Context, conversationID string, fn func(context.Context) error) error {
	entry, release := m.hold(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		release()
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, conversationID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation_id", conversationID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
