package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis with native key expiry. This is the
// deployment backend: all replicas see the same entries, and cached
// outcomes survive process restarts until their TTL lapses.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the payload for key. Expiry is handled by Redis itself.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return payload, true, nil
}

// Put stores payload under key with the given TTL.
func (s *RedisStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
