// Package stats aggregates the order ledger and coupon store into the admin
// statistics view.
package stats

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/order"
)

// Stats is the admin summary: totals across every order plus every coupon
// ever issued with its used state.
type Stats struct {
	TotalItemsPurchased int
	TotalPurchaseAmount decimal.Decimal
	TotalDiscountAmount decimal.Decimal
	DiscountCodes       []coupon.Coupon
}

// Service is a read-only reducer over the ledger and coupon store. Nothing is
// cached; every call recomputes from the full ledger.
type Service struct {
	orders  order.Ledger
	coupons coupon.Store
}

// NewService creates a stats Service over the given stores.
func NewService(orders order.Ledger, coupons coupon.Store) *Service {
	return &Service{orders: orders, coupons: coupons}
}

// GetStats sums item quantities, final amounts, and applied discounts across
// the whole ledger and lists all issued coupons.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	orders, err := s.orders.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read orders")
	}

	out := &Stats{
		TotalPurchaseAmount: decimal.Zero,
		TotalDiscountAmount: decimal.Zero,
	}
	for _, o := range orders {
		for _, item := range o.Items {
			out.TotalItemsPurchased += item.Quantity
		}
		out.TotalPurchaseAmount = out.TotalPurchaseAmount.Add(o.FinalAmount)
		out.TotalDiscountAmount = out.TotalDiscountAmount.Add(o.DiscountApplied)
	}

	coupons, err := s.coupons.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read coupons")
	}
	out.DiscountCodes = coupons

	return out, nil
}
