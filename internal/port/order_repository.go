package port

import (
	"context"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

type OrderRepository interface {
	// SaveOrder durably persists the order in a single atomic write and
	// returns it with its assigned id.
	SaveOrder(ctx context.Context, order domain.Order) (domain.Order, error)

	// FindOrder loads an order with its lines and route. Returns nil when no
	// such order exists.
	FindOrder(ctx context.Context, id int64) (*domain.Order, error)

	// ListOrders returns the owner's orders, newest first, without lines or
	// routes loaded.
	ListOrders(ctx context.Context, owner string) ([]domain.Order, error)
}
