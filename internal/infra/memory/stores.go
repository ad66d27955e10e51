package memory

import (
	"context"
	"slices"
	"sync"

	"exam-quiz-service/internal/domain"
)

// CredentialStore keeps users in a map.
type CredentialStore struct {
	mu    sync.RWMutex
	users map[string]domain.Credential
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{users: make(map[string]domain.Credential)}
}

func (s *CredentialStore) CreateUser(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[cred.Username]; ok {
		return domain.ErrUserExists
	}
	s.users[cred.Username] = cred
	return nil
}

func (s *CredentialStore) GetUser(_ context.Context, username string) (domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.users[username]
	if !ok {
		return domain.Credential{}, domain.ErrUserNotFound
	}
	return cred, nil
}

// PerformanceLog keeps records in append order.
type PerformanceLog struct {
	mu      sync.RWMutex
	records []domain.PerformanceRecord
}

func NewPerformanceLog() *PerformanceLog {
	return &PerformanceLog{}
}

func (l *PerformanceLog) Append(_ context.Context, record domain.PerformanceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

func (l *PerformanceLog) ByUser(_ context.Context, username string) ([]domain.PerformanceRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.PerformanceRecord
	for _, r := range l.records {
		if r.Username == username {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *PerformanceLog) All(_ context.Context) ([]domain.PerformanceRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records), nil
}
