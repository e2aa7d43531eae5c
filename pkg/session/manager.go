package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	universe []string
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL for distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithTagUniverse sets the tag names every GetTags result must contain.
func WithTagUniverse(universe []string) Option {
	return func(m *Manager) {
		m.universe = append([]string(nil), universe...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
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

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for the conversation.
// Every read-modify-write of a session must happen inside fn.
func (m *Manager) WithLock(ctx context.Context, conversationID string, fn func(context.Context) error) error {
	entry := m.acquire(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(conversationID)
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

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, conversationID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Get(ctx, conversationID)
		return err
	})
	return s, err
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	return m.WithLock(ctx, s.ConversationID, func(ctx context.Context) error {
		return m.store.Upsert(ctx, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return m.store.Delete(ctx, conversationID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
// Callers holding WithLock use it for unlocked reads and writes.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Universe returns the tag universe this manager completes mappings over.
func (m *Manager) Universe() []string {
	return append([]string(nil), m.universe...)
}

// CompleteTags returns tags with every universe entry present.
func (m *Manager) CompleteTags(tags domain.Tags) domain.Tags {
	return tags.Complete(m.universe)
}

// GetTags returns the complete tag mapping of a conversation.
// Conversations without a session read as all zeros.
func (m *Manager) GetTags(ctx context.Context, conversationID string) (domain.Tags, error) {
	s, err := m.Load(ctx, conversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return m.CompleteTags(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return m.CompleteTags(s.Tags), nil
}

// CollectTags increments each named tag of s by one.
// It neither locks nor persists: callers hold WithLock and save s themselves.
func (m *Manager) CollectTags(s *domain.Session, names ...string) {
	if len(names) == 0 {
		return
	}
	if s.Tags == nil {
		s.Tags = make(domain.Tags)
	}
	s.Tags.Add(names...)
	s.UpdatedAt = time.Now().UTC()
}

// ClearTags drops every tag of s. Same contract as CollectTags.
func (m *Manager) ClearTags(s *domain.Session) {
	s.Tags = make(domain.Tags)
	s.UpdatedAt = time.Now().UTC()
}

// AddTags increments each named tag by one, creating the session if needed.
func (m *Manager) AddTags(ctx context.Context, conversationID string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		s, err := m.getOrNew(ctx, conversationID)
		if err != nil {
			return err
		}
		m.CollectTags(s, names...)
		return m.store.Upsert(ctx, s)
	})
}

// ResetTags clears every tag of a conversation.
func (m *Manager) ResetTags(ctx context.Context, conversationID string) error {
	return m.WithLock(ctx, conversationID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, conversationID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		m.ClearTags(s)
		return m.store.Upsert(ctx, s)
	})
}

func (m *Manager) getOrNew(ctx context.Context, conversationID string) (*domain.Session, error) {
	s, err := m.store.Get(ctx, conversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSession(conversationID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s.Tags == nil {
		s.Tags = make(domain.Tags)
	}
	return s, nil
}
