package memory

import (
	"context"
	"sync"
	"time"

	"kambaz-quiz-service/internal/domain"
)

// SessionStore keeps login sessions in process memory.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	who       domain.Identity
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock is test-only for deterministic expiry.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Save(_ context.Context, token string, who domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = storedSession{who: who, expiresAt: s.clock().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Lookup(_ context.Context, token string) (domain.Identity, error) {
	now := s.clock()
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	if s.ttl > 0 && !entry.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	return entry.who, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
