package memory

import (
	"context"
	"sync"

	"exam-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionContext
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.SessionContext),
	}
}

func (s *SessionStore) Save(_ context.Context, sc domain.SessionContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sc.ID] = sc
	return nil
}

func (s *SessionStore) Load(_ context.Context, id string) (domain.SessionContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.sessions[id]
	if !ok {
		return domain.SessionContext{}, domain.ErrSessionNotFound
	}
	return sc, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports how many contexts are stored.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
