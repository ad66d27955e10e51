package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps session contexts in Redis as JSON so that a client can
// reconnect (possibly to another instance) and resume. Every save refreshes
// the TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) Save(ctx context.Context, sc domain.SessionContext) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.key(sc.ID), data, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, id string) (domain.SessionContext, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionContext{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionContext{}, err
	}
	var sc domain.SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return domain.SessionContext{}, fmt.Errorf("decode session: %w", err)
	}
	return sc, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
