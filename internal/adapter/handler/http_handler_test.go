package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/core/service"
)

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

func setupHandler(t *testing.T) (http.Handler, *service.InventoryService) {
	t.Helper()
	inventory := service.NewInventoryService()
	orders := service.NewOrderService(inventory, service.NewRoutingService(), newMemoryRepo(), nil, nil, nil)
	return NewHTTPHandler(inventory, orders).Routes(), inventory
}

func doJSON(t *testing.T, router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		request.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestCreateProduct(t *testing.T) {
	router, _ := setupHandler(t)

	recorder := doJSON(t, router, "POST", "/api/products",
		`{"name":"Laptop","price":"999.99","quantity":10,"location":{"x":1,"y":2}}`, nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created ProductResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Laptop", created.Name)
	assert.Equal(t, 10, created.Quantity)
	assert.Equal(t, domain.Point{X: 1, Y: 2}, created.Location)
}

func TestCreateProduct_Conflict(t *testing.T) {
	router, _ := setupHandler(t)

	first := doJSON(t, router, "POST", "/api/products",
		`{"name":"Laptop","price":"999.99","quantity":10,"location":{"x":1,"y":2}}`, nil)
	require.Equal(t, http.StatusCreated, first.Code)

	occupied := doJSON(t, router, "POST", "/api/products",
		`{"name":"Mouse","price":"19.99","quantity":5,"location":{"x":1,"y":2}}`, nil)
	assert.Equal(t, http.StatusConflict, occupied.Code)

	mismatch := doJSON(t, router, "POST", "/api/products",
		`{"name":"Laptop","price":"899.99","quantity":5,"location":{"x":1,"y":2}}`, nil)
	assert.Equal(t, http.StatusConflict, mismatch.Code)
}

func TestCreateProduct_BadRequest(t *testing.T) {
	router, _ := setupHandler(t)

	recorder := doJSON(t, router, "POST", "/api/products", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doJSON(t, router, "POST", "/api/products",
		`{"name":"","price":"1.00","quantity":1,"location":{"x":0,"y":0}}`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListProducts_OwnerScoped(t *testing.T) {
	router, _ := setupHandler(t)
	alice := map[string]string{"X-Owner-Key": "alice"}

	created := doJSON(t, router, "POST", "/api/products",
		`{"name":"Laptop","price":"999.99","quantity":10,"location":{"x":1,"y":2}}`, alice)
	require.Equal(t, http.StatusCreated, created.Code)

	recorder := doJSON(t, router, "GET", "/api/products", "", alice)
	require.Equal(t, http.StatusOK, recorder.Code)
	var mine []ProductResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&mine))
	assert.Len(t, mine, 1)

	recorder = doJSON(t, router, "GET", "/api/products", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var global []ProductResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&global))
	assert.Empty(t, global)
}

func TestDeleteProduct(t *testing.T) {
	router, _ := setupHandler(t)

	created := doJSON(t, router, "POST", "/api/products",
		`{"name":"Laptop","price":"999.99","quantity":10,"location":{"x":1,"y":2}}`, nil)
	require.Equal(t, http.StatusCreated, created.Code)
	var product ProductResponse
	require.NoError(t, json.NewDecoder(created.Body).Decode(&product))

	recorder := doJSON(t, router, "DELETE", "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = doJSON(t, router, "GET", "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func seedOrderInventory(t *testing.T, router http.Handler) {
	t.Helper()
	for _, body := range []string{
		`{"name":"A","price":"10.00","quantity":100,"location":{"x":0,"y":1}}`,
		`{"name":"B","price":"20.00","quantity":5,"location":{"x":1,"y":1}}`,
	} {
		recorder := doJSON(t, router, "POST", "/api/products", body, nil)
		require.Equal(t, http.StatusCreated, recorder.Code)
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	router, inventory := setupHandler(t)
	seedOrderInventory(t, router)

	recorder := doJSON(t, router, "POST", "/api/orders",
		`{"items":[{"product_name":"A","quantity":2},{"product_name":"B","quantity":3}]}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var result domain.OrderResult
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&result))
	assert.Equal(t, domain.OrderStatusSuccess, result.Status)
	assert.Equal(t, []domain.Point{
		{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0},
	}, result.Route)

	a, _ := inventory.FindByName("", "A")
	b, _ := inventory.FindByName("", "B")
	assert.Equal(t, 98, a.Quantity)
	assert.Equal(t, 2, b.Quantity)
}

func TestPlaceOrder_Shortage(t *testing.T) {
	router, inventory := setupHandler(t)
	seedOrderInventory(t, router)

	recorder := doJSON(t, router, "POST", "/api/orders",
		`{"items":[{"product_name":"A","quantity":2},{"product_name":"B","quantity":10}]}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var result domain.OrderResult
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&result))
	assert.Equal(t, domain.OrderStatusFail, result.Status)
	assert.Contains(t, result.Message, "B (requested 10, available 5)")
	assert.Empty(t, result.Route)

	a, _ := inventory.FindByName("", "A")
	assert.Equal(t, 100, a.Quantity)
}

func TestPlaceOrder_BadRequest(t *testing.T) {
	router, _ := setupHandler(t)
	seedOrderInventory(t, router)

	recorder := doJSON(t, router, "POST", "/api/orders", `{"items":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doJSON(t, router, "POST", "/api/orders",
		`{"items":[{"product_name":"A","quantity":0}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetOrderStatusAndRoute(t *testing.T) {
	router, _ := setupHandler(t)
	seedOrderInventory(t, router)

	placed := doJSON(t, router, "POST", "/api/orders",
		`{"items":[{"product_name":"A","quantity":1}]}`, nil)
	require.Equal(t, http.StatusOK, placed.Code)
	var result domain.OrderResult
	require.NoError(t, json.NewDecoder(placed.Body).Decode(&result))

	status := doJSON(t, router, "GET", "/api/orders/1", "", nil)
	require.Equal(t, http.StatusOK, status.Code)
	var statusBody OrderStatusResponse
	require.NoError(t, json.NewDecoder(status.Body).Decode(&statusBody))
	assert.Equal(t, result.ID, statusBody.ID)
	assert.Equal(t, domain.OrderStatusSuccess, statusBody.Status)

	route := doJSON(t, router, "GET", "/api/routes?orderId=1", "", nil)
	require.Equal(t, http.StatusOK, route.Code)
	var routeBody RouteResponse
	require.NoError(t, json.NewDecoder(route.Body).Decode(&routeBody))
	assert.Equal(t, result.Route, routeBody.Route)

	missing := doJSON(t, router, "GET", "/api/orders/999", "", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	missingRoute := doJSON(t, router, "GET", "/api/routes?orderId=999", "", nil)
	assert.Equal(t, http.StatusNotFound, missingRoute.Code)

	badID := doJSON(t, router, "GET", "/api/orders/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, badID.Code)
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupHandler(t)

	recorder := doJSON(t, router, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
