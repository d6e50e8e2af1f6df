package domain

import "time"

type OrderStatus string

const (
	OrderStatusSuccess OrderStatus = "SUCCESS"
	OrderStatusFail    OrderStatus = "FAIL"
)

// OrderLine is one requested product with a positive quantity. Value type.
type OrderLine struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Order is the durable record of a processed request. ID is assigned by the
// order repository on save; Route is empty for failed orders.
type Order struct {
	ID        int64
	Owner     string
	Status    OrderStatus
	Lines     []OrderLine
	Route     []Point
	CreatedAt time.Time
}

// OrderResult is what the caller of ProcessOrder gets back. Transient, not
// stored.
type OrderResult struct {
	ID      int64       `json:"id"`
	Status  OrderStatus `json:"status"`
	Message string      `json:"message"`
	Route   []Point     `json:"path"`
}

// OrderStatusEvent is published after every processed order.
type OrderStatusEvent struct {
	OrderID   int64       `json:"order_id"`
	Owner     string      `json:"owner,omitempty"`
	Status    OrderStatus `json:"status"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}
