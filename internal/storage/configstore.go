// Package storage holds the small key-value configuration store the payment
// core consults at request-build time (connector API-version pins, poll
// configs, merchant toggles).
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/payment-router/internal/payerrors"
)

// ConfigStore looks up platform configuration values by key.
type ConfigStore interface {
	// FindConfigByKey returns the value for key, or an error wrapping
	// payerrors.ErrNotFound when the key is absent.
	FindConfigByKey(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// InMemoryConfigStore is a map-backed ConfigStore for tests and local runs.
type InMemoryConfigStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryConfigStore builds an empty in-memory store, optionally seeded.
func NewInMemoryConfigStore(seed map[string]string) *InMemoryConfigStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &InMemoryConfigStore{values: values}
}

func (s *InMemoryConfigStore) FindConfigByKey(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("config %q: %w", key, payerrors.ErrNotFound)
	}
	return v, nil
}

func (s *InMemoryConfigStore) SetConfig(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// RedisCommands is the slice of the go-redis client the config store uses.
type RedisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisConfigStore is a Redis-backed ConfigStore for multi-instance
// deployments.
type RedisConfigStore struct {
	client RedisCommands
	prefix string
}

// NewRedisConfigStore wraps a Redis client. Keys are namespaced under
// prefix to keep config entries apart from other tenants of the instance.
func NewRedisConfigStore(client RedisCommands, prefix string) *RedisConfigStore {
	if client == nil {
		panic("storage: nil redis client")
	}
	return &RedisConfigStore{client: client, prefix: prefix}
}

func (s *RedisConfigStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *RedisConfigStore) FindConfigByKey(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("config %q: %w", key, payerrors.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("config %q: %w", key, err)
	}
	return v, nil
}

func (s *RedisConfigStore) SetConfig(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}
