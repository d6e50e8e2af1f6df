package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/warefleet/fulfillment/internal/core/domain"
	"github.com/warefleet/fulfillment/internal/core/service"
)

// ownerKeyHeader scopes requests to an owner namespace. Absent header means
// the global namespace.
const ownerKeyHeader = "X-Owner-Key"

type HTTPHandler struct {
	inventory *service.InventoryService
	orders    *service.OrderService
}

func NewHTTPHandler(inventory *service.InventoryService, orders *service.OrderService) *HTTPHandler {
	return &HTTPHandler{inventory: inventory, orders: orders}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Post("/products", h.CreateProduct)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Delete("/products/{id}", h.DeleteProduct)

		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.GetOrderStatus)

		r.Get("/routes", h.GetRoute)
	})
	return r
}

type CreateProductRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Location domain.Point    `json:"location"`
}

type ProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Location domain.Point    `json:"location"`
}

type PlaceOrderRequest struct {
	RequestID string             `json:"request_id,omitempty"`
	Items     []domain.OrderLine `json:"items"`
}

type OrderStatusResponse struct {
	ID     int64              `json:"id"`
	Status domain.OrderStatus `json:"status"`
}

type RouteResponse struct {
	OrderID int64          `json:"order_id"`
	Route   []domain.Point `json:"route"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.inventory.Upsert(ownerKey(r), req.Name, req.Price, req.Quantity, req.Location)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrPriceMismatch):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.inventory.Products(ownerKey(r))
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.inventory.FindByID(chi.URLParam(r, "id"))
	if !ok || product.Owner != ownerKey(r) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.inventory.FindByID(chi.URLParam(r, "id"))
	if !ok || product.Owner != ownerKey(r) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	h.inventory.Delete(product.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orders.ProcessOrder(r.Context(), ownerKey(r), req.RequestID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder), errors.Is(err, service.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDuplicateRequest):
			writeError(w, http.StatusConflict, "duplicate request")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.FindOrder(r.Context(), ownerKey(r), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, OrderStatusResponse{ID: order.ID, Status: order.Status})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), ownerKey(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]OrderStatusResponse, len(orders))
	for i, order := range orders {
		out[i] = OrderStatusResponse{ID: order.ID, Status: order.Status}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId")
		return
	}

	route, err := h.orders.RouteForOrder(r.Context(), ownerKey(r), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if route == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, RouteResponse{OrderID: id, Route: route})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ownerKey(r *http.Request) string {
	return r.Header.Get(ownerKeyHeader)
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
		Location: p.Location,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
