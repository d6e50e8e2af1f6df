package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/port"
)

const (
	successMessage    = "Your order is ready! Please collect it."
	shortageMessage   = "Not enough stock to fulfill your order"
	idempotencyPrefix = "order:"
)

// Inventory is the slice of InventoryService the coordinator needs.
type Inventory interface {
	FindByName(owner, name string) (domain.Product, bool)
	Reserve(id string, qty int) error
	Release(id string, qty int) error
}

// Router computes the pickup route for an order.
type Router interface {
	CalculateOptimalRoute(pickups []domain.Point) ([]domain.Point, error)
}

// OrderService turns requested order lines into a persisted order and a
// caller-facing result. Stock mutation is all-or-nothing per call: a reserve
// that loses a race to a concurrent order triggers compensation of the lines
// already reserved.
type OrderService struct {
	inventory Inventory
	routing   Router
	repo      port.OrderRepository
	cache     port.CacheRepository // optional, enables idempotency and route caching
	events    port.EventPublisher  // optional, best-effort status events
	logger    *slog.Logger
}

func NewOrderService(inventory Inventory, routing Router, repo port.OrderRepository,
	cache port.CacheRepository, events port.EventPublisher, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		inventory: inventory,
		routing:   routing,
		repo:      repo,
		cache:     cache,
		events:    events,
		logger:    logger,
	}
}

type reservation struct {
	product domain.Product
	qty     int
}

// ProcessOrder checks availability, reserves stock line by line, computes the
// pickup route and persists the order. Running out of stock is a business
// outcome, not an error: it produces a FAIL-status result. Errors are reserved
// for misuse (bad input, duplicate request) and infrastructure faults.
func (s *OrderService) ProcessOrder(ctx context.Context, owner, requestID string, lines []domain.OrderLine) (domain.OrderResult, error) {
	if len(lines) == 0 {
		return domain.OrderResult{}, ErrEmptyOrder
	}
	for _, line := range lines {
		if strings.TrimSpace(line.ProductName) == "" {
			return domain.OrderResult{}, fmt.Errorf("%w: empty product name", ErrInvalidArgument)
		}
		if line.Quantity <= 0 {
			return domain.OrderResult{}, fmt.Errorf("%w: quantity for %q must be positive, got %d",
				ErrInvalidArgument, line.ProductName, line.Quantity)
		}
	}

	if requestID != "" && s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, idempotencyPrefix+owner+":"+requestID)
		if err != nil {
			return domain.OrderResult{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.OrderResult{}, ErrDuplicateRequest
		}
	}

	// Advisory availability check. It produces an accurate shortage message
	// up front; the authoritative guard is the per-line Reserve below.
	if shortfalls := s.checkStock(owner, lines); len(shortfalls) > 0 {
		return s.finalizeFail(ctx, owner, lines, shortfalls)
	}

	reserved := make([]reservation, 0, len(lines))
	for _, line := range lines {
		product, ok := s.inventory.FindByName(owner, line.ProductName)
		if !ok {
			s.releaseAll(reserved)
			return s.finalizeFail(ctx, owner, lines, []string{line.ProductName + ": product not found"})
		}
		if err := s.inventory.Reserve(product.ID, line.Quantity); err != nil {
			s.releaseAll(reserved)
			if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
				// Lost the race to a concurrent order between the check and
				// this reserve. All-or-nothing: earlier lines are released
				// and the order fails.
				return s.finalizeFail(ctx, owner, lines, []string{s.shortfall(owner, line)})
			}
			return domain.OrderResult{}, fmt.Errorf("reserve %q: %w", line.ProductName, err)
		}
		reserved = append(reserved, reservation{product: product, qty: line.Quantity})
	}

	route, err := s.routing.CalculateOptimalRoute(distinctLocations(reserved))
	if err != nil {
		s.releaseAll(reserved)
		return domain.OrderResult{}, err
	}

	order := domain.Order{
		Owner:     owner,
		Status:    domain.OrderStatusSuccess,
		Lines:     lines,
		Route:     route,
		CreatedAt: time.Now(),
	}
	saved, err := s.repo.SaveOrder(ctx, order)
	if err != nil {
		s.releaseAll(reserved)
		return domain.OrderResult{}, fmt.Errorf("save order: %w", err)
	}

	s.publish(ctx, saved, successMessage)
	return domain.OrderResult{
		ID:      saved.ID,
		Status:  saved.Status,
		Message: successMessage,
		Route:   saved.Route,
	}, nil
}

// checkStock reports one entry per unavailable line, in request order.
func (s *OrderService) checkStock(owner string, lines []domain.OrderLine) []string {
	var shortfalls []string
	for _, line := range lines {
		product, ok := s.inventory.FindByName(owner, line.ProductName)
		switch {
		case !ok:
			shortfalls = append(shortfalls, line.ProductName+": product not found")
		case product.Quantity < line.Quantity:
			shortfalls = append(shortfalls, fmt.Sprintf("%s (requested %d, available %d)",
				product.Name, line.Quantity, product.Quantity))
		}
	}
	return shortfalls
}

// shortfall re-reads current availability for the line that lost a reserve
// race, so the failure message matches what the store holds now.
func (s *OrderService) shortfall(owner string, line domain.OrderLine) string {
	product, ok := s.inventory.FindByName(owner, line.ProductName)
	if !ok {
		return line.ProductName + ": product not found"
	}
	return fmt.Sprintf("%s (requested %d, available %d)", product.Name, line.Quantity, product.Quantity)
}

func (s *OrderService) releaseAll(reserved []reservation) {
	for _, r := range reserved {
		if err := s.inventory.Release(r.product.ID, r.qty); err != nil {
			s.logger.Error("failed to release reserved stock",
				"product_id", r.product.ID, "quantity", r.qty, "error", err)
		}
	}
}

func (s *OrderService) finalizeFail(ctx context.Context, owner string, lines []domain.OrderLine, shortfalls []string) (domain.OrderResult, error) {
	message := shortageMessage + ": " + strings.Join(shortfalls, "; ")
	order := domain.Order{
		Owner:     owner,
		Status:    domain.OrderStatusFail,
		Lines:     lines,
		Route:     []domain.Point{},
		CreatedAt: time.Now(),
	}
	saved, err := s.repo.SaveOrder(ctx, order)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("save order: %w", err)
	}

	s.publish(ctx, saved, message)
	return domain.OrderResult{
		ID:      saved.ID,
		Status:  saved.Status,
		Message: message,
		Route:   []domain.Point{},
	}, nil
}

func (s *OrderService) publish(ctx context.Context, order domain.Order, message string) {
	if s.events == nil {
		return
	}
	event := domain.OrderStatusEvent{
		OrderID:   order.ID,
		Owner:     order.Owner,
		Status:    order.Status,
		Message:   message,
		CreatedAt: order.CreatedAt,
	}
	if err := s.events.PublishOrderStatus(ctx, event); err != nil {
		s.logger.Error("failed to publish order status", "order_id", order.ID, "error", err)
	}
}

// distinctLocations keeps the first appearance of every pickup location, in
// reservation order. The routing tie-break depends on this order.
func distinctLocations(reserved []reservation) []domain.Point {
	seen := make(map[domain.Point]struct{}, len(reserved))
	locations := make([]domain.Point, 0, len(reserved))
	for _, r := range reserved {
		if _, ok := seen[r.product.Location]; ok {
			continue
		}
		seen[r.product.Location] = struct{}{}
		locations = append(locations, r.product.Location)
	}
	return locations
}

// FindOrder loads one of the owner's orders. Returns nil when the order does
// not exist or belongs to someone else.
func (s *OrderService) FindOrder(ctx context.Context, owner string, id int64) (*domain.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.Owner != owner {
		return nil, nil
	}
	return order, nil
}

// ListOrders returns the owner's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, owner string) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx, owner)
}

// RouteForOrder returns the persisted route of an order, read through the
// cache when one is wired. A nil route means the order was not found; a FAIL
// order yields an empty route.
func (s *OrderService) RouteForOrder(ctx context.Context, owner string, id int64) ([]domain.Point, error) {
	if s.cache != nil {
		route, err := s.cache.GetRoute(ctx, owner, id)
		if err != nil {
			s.logger.Warn("route cache lookup failed", "order_id", id, "error", err)
		} else if route != nil {
			return route, nil
		}
	}

	order, err := s.FindOrder(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	route := order.Route
	if route == nil {
		route = []domain.Point{}
	}
	if s.cache != nil {
		if err := s.cache.CacheRoute(ctx, owner, id, route); err != nil {
			s.logger.Warn("route cache store failed", "order_id", id, "error", err)
		}
	}
	return route, nil
}
