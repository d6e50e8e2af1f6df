package port

import (
	"context"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if it
	// already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// CacheRoute stores a persisted route for later lookups
	CacheRoute(ctx context.Context, owner string, orderID int64, route []domain.Point) error

	// GetRoute returns a cached route, or nil on a miss
	GetRoute(ctx context.Context, owner string, orderID int64) ([]domain.Point, error)
}
