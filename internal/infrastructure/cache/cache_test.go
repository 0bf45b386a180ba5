package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryDashboardCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryDashboardCache()
	clock := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	tenant := uuid.New()

	t.Run("miss then hit", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		payload := []byte(`{"role":"accounting"}`)
		require.NoError(t, c.Set(ctx, "k", payload, time.Minute))
		payload[0] = 'x'

		got, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"role":"accounting"}`, string(got), "stored value is a copy")
	})

	t.Run("entries expire", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
		clock = clock.Add(2 * time.Second)

		_, ok, err := c.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("generations are per tenant", func(t *testing.T) {
		gen, err := c.Generation(ctx, tenant)
		require.NoError(t, err)
		assert.Zero(t, gen)

		require.NoError(t, c.BumpGeneration(ctx, tenant))
		require.NoError(t, c.BumpGeneration(ctx, tenant))

		gen, err = c.Generation(ctx, tenant)
		require.NoError(t, err)
		assert.Equal(t, int64(2), gen)

		other, err := c.Generation(ctx, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, other)
	})

	t.Run("bump sweeps expired entries", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "stale", []byte("1"), time.Second))
		clock = clock.Add(time.Minute)
		require.NoError(t, c.BumpGeneration(ctx, tenant))
		assert.Zero(t, c.Len())
	})
}

// redisClient connects to REDIS_ADDR or skips the test
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisDashboardCache(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	c := NewRedisDashboardCache(client)
	tenant := uuid.New()
	key := "p2p:dashboard:test:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, key, dashboardGenerationPrefix+tenant.String()) })

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte("cached"), time.Minute))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached", string(got))

	require.NoError(t, c.BumpGeneration(ctx, tenant))
	gen, err := c.Generation(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestRedisLocker(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	locker := NewRedisLocker(client, 2, 10*time.Millisecond, zap.NewNop())
	key := "test:" + uuid.NewString()

	release, err := locker.Obtain(ctx, key, time.Second)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, key, time.Second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	require.NoError(t, release(ctx))
	release, err = locker.Obtain(ctx, key, time.Second)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
