package memory

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/lootcart/lootcart/internal/domain/coupon"
)

var _ coupon.Store = (*CouponStore)(nil)

// CouponStore implements coupon.Store over the shared Store.
type CouponStore struct {
	store *Store
}

// FindUnused returns the coupon for code only when it exists and has not been
// consumed yet; a used coupon looks the same as a missing one.
func (c *CouponStore) FindUnused(_ context.Context, code string) (*coupon.Coupon, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	i, ok := c.store.couponIndex[code]
	if !ok || c.store.coupons[i].Used {
		return nil, coupon.ErrNotFound
	}
	cp := c.store.coupons[i]
	return &cp, nil
}

// MarkUsed flips the coupon to used under the write lock. The check and the
// write happen in one critical section, so two concurrent consumers of the
// same code cannot both succeed.
func (c *CouponStore) MarkUsed(_ context.Context, code string) (bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	i, ok := c.store.couponIndex[code]
	if !ok || c.store.coupons[i].Used {
		return false, nil
	}
	c.store.coupons[i].Used = true
	return true, nil
}

// Add stores a new coupon. Duplicate codes are rejected rather than silently
// merged; the caller owns the (accepted, negligible) collision risk.
func (c *CouponStore) Add(_ context.Context, cp coupon.Coupon) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, ok := c.store.couponIndex[cp.Code]; ok {
		return errors.Errorf("coupon %s already exists", cp.Code)
	}
	c.store.couponIndex[cp.Code] = len(c.store.coupons)
	c.store.coupons = append(c.store.coupons, cp)
	return nil
}

// All returns a copy of every issued coupon in issue order.
func (c *CouponStore) All(_ context.Context) ([]coupon.Coupon, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	out := make([]coupon.Coupon, len(c.store.coupons))
	copy(out, c.store.coupons)
	return out, nil
}
