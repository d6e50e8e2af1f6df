package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/core/service"
)

const (
	productName   = "stress-item"
	initialStock  = 20
	totalRequests = 50
)

// memoryRepo is an in-process stand-in for the durable order store, so the
// stress run exercises only the reservation path.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]domain.Order
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[int64]domain.Order)}
}

func (r *memoryRepo) SaveOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	r.orders[order.ID] = order
	return order, nil
}

func (r *memoryRepo) FindOrder(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (r *memoryRepo) ListOrders(_ context.Context, owner string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []domain.Order
	for _, order := range r.orders {
		if order.Owner == owner {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func main() {
	ctx := context.Background()

	inventory := service.NewInventoryService()
	routing := service.NewRoutingService()
	orders := service.NewOrderService(inventory, routing, newMemoryRepo(), nil, nil, nil)

	product, err := inventory.Upsert("", productName, decimal.NewFromInt(10), initialStock, domain.Point{X: 3, Y: 4})
	if err != nil {
		log.Fatalf("failed to seed stock: %v", err)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := orders.ProcessOrder(ctx, "", uuid.NewString(), []domain.OrderLine{
				{ProductName: productName, Quantity: 1},
			})
			if err == nil && result.Status == domain.OrderStatusSuccess {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	remaining, _ := inventory.FindByID(product.ID)
	fmt.Printf("Final Stock: %d\n", remaining.Quantity)

	if remaining.Quantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", remaining.Quantity)
	}
}
