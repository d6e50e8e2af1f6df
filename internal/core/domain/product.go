package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stocked item at a fixed shelf location. Name and location are
// each unique within an owner namespace; quantity never goes negative.
type Product struct {
	ID        string
	Owner     string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Location  Point
	CreatedAt time.Time
	UpdatedAt time.Time
}
