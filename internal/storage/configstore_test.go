package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-router/internal/payerrors"
)

func TestInMemoryConfigStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryConfigStore(map[string]string{"connector_api_version_cybersource": "v2"})

	t.Run("seeded key resolves", func(t *testing.T) {
		v, err := store.FindConfigByKey(ctx, "connector_api_version_cybersource")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)
	})
	t.Run("missing key wraps not found", func(t *testing.T) {
		_, err := store.FindConfigByKey(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrNotFound))
	})
	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.SetConfig(ctx, "poll_delay", "2"))
		v, err := store.FindConfigByKey(ctx, "poll_delay")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})
}

// stubRedis answers Get/Set from a plain map, with redis.Nil on misses.
type stubRedis struct {
	values map[string]string
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	v, ok := s.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (s *stubRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	s.values[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func TestRedisConfigStore(t *testing.T) {
	ctx := context.Background()
	stub := &stubRedis{values: map[string]string{}}
	store := NewRedisConfigStore(stub, "payment_router:config")

	t.Run("keys are namespaced under the prefix", func(t *testing.T) {
		require.NoError(t, store.SetConfig(ctx, "connector_api_version_cybersource", "v2"))
		assert.Equal(t, "v2", stub.values["payment_router:config:connector_api_version_cybersource"])

		v, err := store.FindConfigByKey(ctx, "connector_api_version_cybersource")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)
	})
	t.Run("redis.Nil maps to not found", func(t *testing.T) {
		_, err := store.FindConfigByKey(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, payerrors.ErrNotFound))
	})
	t.Run("empty prefix leaves keys bare", func(t *testing.T) {
		bare := NewRedisConfigStore(stub, "")
		require.NoError(t, bare.SetConfig(ctx, "poll_delay", "5"))
		assert.Equal(t, "5", stub.values["poll_delay"])
	})
	t.Run("nil client panics", func(t *testing.T) {
		assert.Panics(t, func() { NewRedisConfigStore(nil, "") })
	})
}
