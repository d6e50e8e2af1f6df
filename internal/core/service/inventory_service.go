package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warefleet/fulfillment/internal/core/domain"
)

type nameKey struct {
	owner string
	name  string // lowercased, lookups are case-insensitive
}

type locationKey struct {
	owner    string
	location domain.Point
}

// stockEntry guards one product's state. Quantity changes happen under the
// entry mutex so check-and-decrement is a single critical section.
type stockEntry struct {
	mu      sync.Mutex
	product domain.Product
	deleted bool
}

func (e *stockEntry) snapshot() (domain.Product, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Product{}, false
	}
	return e.product, true
}

// InventoryService is the single source of truth for stock quantities and
// shelf locations. The registry mutex guards the lookup maps; per-entry
// mutexes guard quantities, so Reserve/Release on different products never
// contend with each other.
type InventoryService struct {
	mu         sync.RWMutex
	byID       map[string]*stockEntry
	byName     map[nameKey]*stockEntry
	byLocation map[locationKey]*stockEntry
}

func NewInventoryService() *InventoryService {
	return &InventoryService{
		byID:       make(map[string]*stockEntry),
		byName:     make(map[nameKey]*stockEntry),
		byLocation: make(map[locationKey]*stockEntry),
	}
}

// Upsert creates a product, or merges quantity into an existing product with
// the same name and location (idempotent re-stocking). The merge requires an
// exact price match. A name stocked elsewhere or an occupied location is a
// conflict. The empty owner key is the global namespace.
func (s *InventoryService) Upsert(owner, name string, price decimal.Decimal, quantity int, location domain.Point) (domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: empty product name", ErrInvalidArgument)
	}
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: negative price %s", ErrInvalidArgument, price)
	}
	if quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: negative quantity %d", ErrInvalidArgument, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nk := nameKey{owner: owner, name: strings.ToLower(name)}
	lk := locationKey{owner: owner, location: location}

	if named, ok := s.byName[nk]; ok {
		named.mu.Lock()
		defer named.mu.Unlock()

		if named.product.Location != location {
			return domain.Product{}, fmt.Errorf("%w: product %q already stocked at %s",
				ErrConflict, named.product.Name, named.product.Location)
		}
		if !named.product.Price.Equal(price) {
			return domain.Product{}, fmt.Errorf("%w: product %q at %s is priced %s, got %s",
				ErrPriceMismatch, named.product.Name, location, named.product.Price, price)
		}
		named.product.Quantity += quantity
		named.product.UpdatedAt = time.Now()
		return named.product, nil
	}

	if occupant, ok := s.byLocation[lk]; ok {
		occupant.mu.Lock()
		occupantName := occupant.product.Name
		occupant.mu.Unlock()
		return domain.Product{}, fmt.Errorf("%w: location %s is occupied by product %q",
			ErrConflict, location, occupantName)
	}

	now := time.Now()
	entry := &stockEntry{
		product: domain.Product{
			ID:        uuid.NewString(),
			Owner:     owner,
			Name:      name,
			Price:     price,
			Quantity:  quantity,
			Location:  location,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.byID[entry.product.ID] = entry
	s.byName[nk] = entry
	s.byLocation[lk] = entry
	return entry.product, nil
}

// FindByName looks a product up by case-insensitive name. Returns a snapshot
// copy; mutating it does not touch store state.
func (s *InventoryService) FindByName(owner, name string) (domain.Product, bool) {
	s.mu.RLock()
	entry := s.byName[nameKey{owner: owner, name: strings.ToLower(strings.TrimSpace(name))}]
	s.mu.RUnlock()
	if entry == nil {
		return domain.Product{}, false
	}
	return entry.snapshot()
}

// FindByLocation looks a product up by exact shelf location.
func (s *InventoryService) FindByLocation(owner string, location domain.Point) (domain.Product, bool) {
	s.mu.RLock()
	entry := s.byLocation[locationKey{owner: owner, location: location}]
	s.mu.RUnlock()
	if entry == nil {
		return domain.Product{}, false
	}
	return entry.snapshot()
}

// FindByID looks a product up by its opaque id.
func (s *InventoryService) FindByID(id string) (domain.Product, bool) {
	s.mu.RLock()
	entry := s.byID[id]
	s.mu.RUnlock()
	if entry == nil {
		return domain.Product{}, false
	}
	return entry.snapshot()
}

// Products returns snapshots of the owner's products, sorted by name.
func (s *InventoryService) Products(owner string) []domain.Product {
	s.mu.RLock()
	entries := make([]*stockEntry, 0, len(s.byID))
	for key, entry := range s.byName {
		if key.owner == owner {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	products := make([]domain.Product, 0, len(entries))
	for _, entry := range entries {
		if p, ok := entry.snapshot(); ok {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products
}

// Reserve atomically checks quantity >= qty and decrements it. This is the
// authoritative guard against over-selling: no caller can act on a quantity
// that goes stale before the decrement.
func (s *InventoryService) Reserve(id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: reserve quantity must be positive, got %d", ErrInvalidArgument, qty)
	}

	s.mu.RLock()
	entry := s.byID[id]
	s.mu.RUnlock()
	if entry == nil {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}
	if entry.product.Quantity < qty {
		return fmt.Errorf("%w: %s (requested %d, available %d)",
			ErrInsufficientStock, entry.product.Name, qty, entry.product.Quantity)
	}
	entry.product.Quantity -= qty
	entry.product.UpdatedAt = time.Now()
	return nil
}

// Release adds qty back to a product's quantity. It is the compensating half
// of Reserve and never fails for an existing product.
func (s *InventoryService) Release(id string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: release quantity must be positive, got %d", ErrInvalidArgument, qty)
	}

	s.mu.RLock()
	entry := s.byID[id]
	s.mu.RUnlock()
	if entry == nil {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.product.Quantity += qty
	entry.product.UpdatedAt = time.Now()
	return nil
}

// Delete removes a product from the registry. Returns whether anything was
// removed.
func (s *InventoryService) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.byID[id]
	if entry == nil {
		return false
	}

	entry.mu.Lock()
	entry.deleted = true
	owner := entry.product.Owner
	name := strings.ToLower(entry.product.Name)
	location := entry.product.Location
	entry.mu.Unlock()

	delete(s.byID, id)
	delete(s.byName, nameKey{owner: owner, name: name})
	delete(s.byLocation, locationKey{owner: owner, location: location})
	return true
}
