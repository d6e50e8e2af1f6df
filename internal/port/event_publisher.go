package port

import (
	"context"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

type EventPublisher interface {
	// PublishOrderStatus announces the outcome of a processed order.
	PublishOrderStatus(ctx context.Context, event domain.OrderStatusEvent) error

	Close() error
}
