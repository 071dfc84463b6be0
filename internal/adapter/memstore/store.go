// Package memstore provides an in-memory KV store with the same contract
// as the Redis store. It backs local development and tests, and is the
// default substrate when no REDIS_ADDR is configured.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/windwardlabs/regatta-forecast/internal/forecast"
)

// Store is a threadsafe in-memory KV store.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Get returns the value stored under key, or forecast.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, forecast.ErrNotFound
	}
	// Copy so callers can never mutate the stored value.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = stored
	return nil
}

// Keys returns every key starting with prefix, in no particular order.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// DeleteByPrefix removes every key starting with prefix and returns how
// many were deleted.
func (s *Store) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
			deleted++
		}
	}
	return deleted, nil
}

// Close exists for interface symmetry with the Redis store.
func (s *Store) Close() error {
	return nil
}
