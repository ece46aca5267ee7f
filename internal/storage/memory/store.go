// Package memory provides the in-process storage backend: a single
// constructor-injected Store shared by the catalog, coupon, and order
// repositories. All access goes through one RWMutex and reads hand out
// defensive copies, so callers can never alias internal state.
package memory

import (
	"sync"

	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/order"
	"github.com/lootcart/lootcart/internal/domain/product"
)

// Store holds all in-memory state. Construct one per process (or per test)
// and hand out the typed repository views.
type Store struct {
	mu sync.RWMutex

	products     []product.Product
	productIndex map[string]int

	// coupons keeps issue order; couponIndex maps code → slice position.
	coupons     []coupon.Coupon
	couponIndex map[string]int

	orders []order.Order
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		productIndex: make(map[string]int),
		couponIndex:  make(map[string]int),
	}
}

// Products returns the catalog view of the store.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{store: s}
}

// Coupons returns the coupon view of the store.
func (s *Store) Coupons() *CouponStore {
	return &CouponStore{store: s}
}

// Orders returns the order-ledger view of the store.
func (s *Store) Orders() *OrderLedger {
	return &OrderLedger{store: s}
}
