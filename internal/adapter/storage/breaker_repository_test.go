package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

type stubRepo struct {
	err   error
	saved int
}

func (s *stubRepo) SaveOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	if s.err != nil {
		return domain.Order{}, s.err
	}
	s.saved++
	order.ID = int64(s.saved)
	return order, nil
}

func (s *stubRepo) FindOrder(_ context.Context, id int64) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func (s *stubRepo) ListOrders(_ context.Context, owner string) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func TestBreakerRepository_PassesThrough(t *testing.T) {
	stub := &stubRepo{}
	repo := NewBreakerRepository(stub, nil)

	saved, err := repo.SaveOrder(context.Background(), domain.Order{Status: domain.OrderStatusSuccess})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	found, err := repo.FindOrder(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestBreakerRepository_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubRepo{err: errors.New("db down")}
	repo := NewBreakerRepository(stub, nil)

	for i := 0; i < 5; i++ {
		_, err := repo.SaveOrder(context.Background(), domain.Order{})
		require.Error(t, err)
	}

	_, err := repo.SaveOrder(context.Background(), domain.Order{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
