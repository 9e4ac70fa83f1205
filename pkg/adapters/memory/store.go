package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

// session is a stored conversation and the instant it expires. A zero expiry never expires.
type session struct {
	state   *domain.State
	expires time.Time
}

func (s session) expired(now time.Time) bool {
	return !s.expires.IsZero() && !now.Before(s.expires)
}

// Store implements ports.StateStore in memory with the same expiry rules as the
// Redis store: every Save restarts the session's TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration
	now      func() time.Time
}

type StoreOption func(*Store)

// WithTTL expires sessions ttl after their last Save. Zero keeps them forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a deep copy of state.
func (s *Store) Save(_ context.Context, sessionID string, state *domain.State) error {
	entry := session{state: state.Clone()}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = entry
	return nil
}

// Load returns a deep copy, so callers never alias the stored conversation.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || entry.expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return entry.state.Clone(), nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// List returns the live session ids, sorted, and drops expired ones.
func (s *Store) List(_ context.Context) ([]string, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, id)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
