package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

// MemorySessionStore keeps quiz sessions in process memory.
// Expired sessions are evicted eagerly on access and in bulk by DeleteExpired.
type MemorySessionStore struct {
	sessions map[string]*sessionEntry
	mu       sync.Mutex
	now      func() time.Time
}

type sessionEntry struct {
	mu        sync.Mutex
	session   *core.QuizSession
	expiresAt time.Time // fixed at Create, read without mu
}

func (e *sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemorySessionStore creates an empty session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

// Create stores a new session
func (s *MemorySessionStore) Create(ctx context.Context, session *core.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return core.ErrStoreOperationFailed
	}
	s.sessions[session.ID] = &sessionEntry{session: session.Clone(), expiresAt: session.ExpiresAt}
	return nil
}

// Get returns a copy of the session
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*core.QuizSession, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.session.Clone(), nil
}

// Update applies fn to a copy of the session under the session's lock and
// stores the copy if fn succeeds
func (s *MemorySessionStore) Update(ctx context.Context, id string, fn func(*core.QuizSession) error) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.session.Clone()
	if err := fn(working); err != nil {
		return err
	}
	entry.session = working
	return nil
}

// DeleteExpired removes every session whose retention window ended before now
func (s *MemorySessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of stored sessions
func (s *MemorySessionStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions), nil
}

func (s *MemorySessionStore) entry(id string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrUnknownSession
	}
	if entry.expired(s.now()) {
		delete(s.sessions, id)
		return nil, core.ErrUnknownSession
	}
	return entry, nil
}
