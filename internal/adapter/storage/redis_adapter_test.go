package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

func setupRedis(t *testing.T) *RedisAdapter {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisAdapter(client)
}

func TestRedisAdapter_SetIdempotency(t *testing.T) {
	adapter := setupRedis(t)
	ctx := context.Background()
	key := "order:test:" + uuid.NewString()

	ok, err := adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second set of the same key must report a duplicate")
}

func TestRedisAdapter_RouteRoundTrip(t *testing.T) {
	adapter := setupRedis(t)
	ctx := context.Background()
	orderID := int64(uuid.New().ID())

	route := []domain.Point{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 3}, {X: 0, Y: 3}, {X: 0, Y: 0},
	}
	require.NoError(t, adapter.CacheRoute(ctx, "alice", orderID, route))

	got, err := adapter.GetRoute(ctx, "alice", orderID)
	require.NoError(t, err)
	assert.Equal(t, route, got)

	// Owner is part of the key.
	other, err := adapter.GetRoute(ctx, "bob", orderID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRedisAdapter_GetRoute_Miss(t *testing.T) {
	adapter := setupRedis(t)

	got, err := adapter.GetRoute(context.Background(), "nobody", int64(uuid.New().ID()))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisAdapter_EmptyRoute_IsNotAMiss(t *testing.T) {
	adapter := setupRedis(t)
	ctx := context.Background()
	orderID := int64(uuid.New().ID())

	require.NoError(t, adapter.CacheRoute(ctx, "alice", orderID, []domain.Point{}))

	got, err := adapter.GetRoute(ctx, "alice", orderID)
	require.NoError(t, err)
	require.NotNil(t, got, "a cached empty route must be distinguishable from a miss")
	assert.Empty(t, got)
}
