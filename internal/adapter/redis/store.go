// Package redis provides the Redis-backed KV store used as the bundle
// cache substrate in production deployments.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/windwardlabs/regatta-forecast/internal/forecast"
)

// connectTimeout bounds the startup ping.
const connectTimeout = 5 * time.Second

// Store persists opaque values in Redis. Entries are written without
// server-side expiry: freshness lives in the cache envelope, so expired
// bundles stay readable for stale service.
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis at addr and verifies the connection with a
// ping before returning.
func NewStore(addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

// Get returns the value stored under key, or forecast.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, forecast.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Keys returns every key starting with prefix. The bundle keyspace is one
// small key per race area, so a blocking KEYS scan is fine here.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys %s*: %w", prefix, err)
	}
	return keys, nil
}

// DeleteByPrefix removes every key starting with prefix and returns how
// many were deleted.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del %s*: %w", prefix, err)
	}
	return int(deleted), nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
