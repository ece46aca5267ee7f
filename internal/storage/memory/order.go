package memory

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/lootcart/lootcart/internal/domain/order"
)

var _ order.Ledger = (*OrderLedger)(nil)

// OrderLedger implements order.Ledger over the shared Store. Orders are only
// ever appended, never mutated or removed.
type OrderLedger struct {
	store *Store
}

// Append records a completed order. The stored copy owns its own items slice
// so later caller-side mutation cannot reach the ledger.
func (l *OrderLedger) Append(_ context.Context, o *order.Order) error {
	if o == nil {
		return errors.New("nil order")
	}

	stored := *o
	stored.Items = make([]order.CartItem, len(o.Items))
	copy(stored.Items, o.Items)

	l.store.mu.Lock()
	l.store.orders = append(l.store.orders, stored)
	l.store.mu.Unlock()
	return nil
}

// Count returns the number of recorded orders.
func (l *OrderLedger) Count(_ context.Context) (int, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return len(l.store.orders), nil
}

// All returns a defensive copy of the ledger in append order.
func (l *OrderLedger) All(_ context.Context) ([]order.Order, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	out := make([]order.Order, len(l.store.orders))
	for i, o := range l.store.orders {
		items := make([]order.CartItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
		out[i] = o
	}
	return out, nil
}
