package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/port"
)

// BreakerRepository wraps an order repository with a circuit breaker so a
// struggling database fails order calls fast instead of piling up requests.
type BreakerRepository struct {
	repo port.OrderRepository
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerRepository(repo port.OrderRepository, logger *slog.Logger) *BreakerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:    "order-repository",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerRepository{
		repo: repo,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerRepository) SaveOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.repo.SaveOrder(ctx, order)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return v.(domain.Order), nil
}

func (b *BreakerRepository) FindOrder(ctx context.Context, id int64) (*domain.Order, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.repo.FindOrder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

func (b *BreakerRepository) ListOrders(ctx context.Context, owner string) ([]domain.Order, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.repo.ListOrders(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Order), nil
}
