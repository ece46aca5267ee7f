package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a single product/quantity pair inside a cart or an order.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Order is an immutable snapshot of a completed checkout.
// FinalAmount = TotalAmount - DiscountApplied.
type Order struct {
	ID              string
	Items           []CartItem
	TotalAmount     decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalAmount     decimal.Decimal
	CreatedAt       time.Time
}

// Ledger is the append-only record of completed orders. Its length drives
// the every-Nth-order reward cadence.
type Ledger interface {
	Append(ctx context.Context, o *Order) error
	Count(ctx context.Context) (int, error)
	// All returns a defensive copy of the full ledger in append order.
	All(ctx context.Context) ([]Order, error)
}
