package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// RedisStore keeps the token under a fixed key with no TTL: expiry is never
// enforced locally, only discovered via a rejected backend call.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ ports.TokenStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("redis get token: %w", err)
	}
	if token == "" {
		return "", domain.ErrNoToken
	}
	return token, nil
}

func (s *RedisStore) Set(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}
