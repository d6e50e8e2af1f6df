package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

const (
	routeKeyPrefix    = "route:"
	routeKeyTTL       = time.Hour
	idempotencyKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func routeKey(owner string, orderID int64) string {
	return fmt.Sprintf("%s%s:%d", routeKeyPrefix, owner, orderID)
}

func (r *RedisAdapter) CacheRoute(ctx context.Context, owner string, orderID int64, route []domain.Point) error {
	if route == nil {
		route = []domain.Point{}
	}
	payload, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("marshal route: %w", err)
	}
	return r.client.Set(ctx, routeKey(owner, orderID), payload, routeKeyTTL).Err()
}

// GetRoute returns nil on a cache miss; an empty cached route comes back as
// an empty, non-nil slice.
func (r *RedisAdapter) GetRoute(ctx context.Context, owner string, orderID int64) ([]domain.Point, error) {
	payload, err := r.client.Get(ctx, routeKey(owner, orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	route := []domain.Point{}
	if err := json.Unmarshal(payload, &route); err != nil {
		return nil, fmt.Errorf("unmarshal route: %w", err)
	}
	return route, nil
}
