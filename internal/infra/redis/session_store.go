package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"kambaz-quiz-service/internal/domain"
)

// SessionStore keeps login sessions in Redis so every instance can resolve them.
// Sessions are stored as: SET session:{token} {identity json} EX {ttl}
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, token string, who domain.Identity) error {
	data, err := json.Marshal(who)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(token), data, s.ttl).Err()
}

// Lookup also slides the expiry forward, like a rolling session cookie.
func (s *SessionStore) Lookup(ctx context.Context, token string) (domain.Identity, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	var who domain.Identity
	if err := json.Unmarshal(data, &who); err != nil {
		return domain.Identity{}, err
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	}
	return who, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}
