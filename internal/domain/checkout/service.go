// Package checkout contains the checkout engine: subtotal calculation,
// single-use coupon consumption, every-Nth-order reward issuance, and order
// persistence, all behind one critical section.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/order"
	"github.com/lootcart/lootcart/internal/domain/product"
	"github.com/lootcart/lootcart/internal/domain/reward"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyItems = errors.New("items required")
	// ErrInvalidCoupon covers both unknown codes and codes that were already
	// consumed; callers cannot distinguish the two, by the single-use contract.
	ErrInvalidCoupon = errors.New("invalid or already used discount code")
)

// ProductNotFoundError indicates a cart item references an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// Result holds the output of a successful checkout. RewardCoupon is non-nil
// only when this order hit the reward cadence; the coupon is for a future
// purchase, not applied to this order.
type Result struct {
	Order           *order.Order
	DiscountApplied decimal.Decimal
	FinalAmount     decimal.Decimal
	RewardCoupon    *coupon.Coupon
}

// RewardCheck is the outcome of probing the reward cadence without placing an
// order. Exactly one of Coupon / OrdersNeeded is meaningful: Coupon is set
// when the next order position is a reward position, otherwise OrdersNeeded
// says how many more orders must complete first.
type RewardCheck struct {
	Coupon       *coupon.Coupon
	OrderCount   int
	OrdersNeeded int
}

// Engine orchestrates checkout. It holds no order or coupon state of its own;
// all state lives in the injected collaborators. A single mutex serializes
// ProcessCheckout and TriggerRewardCheck so coupon consumption and the
// order-count read/append pair are linearizable.
type Engine struct {
	products product.Repository
	coupons  coupon.Store
	orders   order.Ledger
	rewards  *reward.Generator
	everyN   int

	mu sync.Mutex

	// overridable for tests
	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine. everyN is the reward cadence: every everyN-th
// order triggers a reward. Values below 1 are rejected here, at construction
// time, so the modulo can never be taken against zero per call.
func NewEngine(
	products product.Repository,
	coupons coupon.Store,
	orders order.Ledger,
	rewards *reward.Generator,
	everyN int,
) (*Engine, error) {
	if everyN < 1 {
		return nil, errors.Errorf("reward cadence must be >= 1, got %d", everyN)
	}

	return &Engine{
		products: products,
		coupons:  coupons,
		orders:   orders,
		rewards:  rewards,
		everyN:   everyN,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}, nil
}

// ProcessCheckout computes the subtotal for the cart, validates the discount
// coupon if a code is given, issues a reward coupon when this order lands on
// the cadence, appends the order to the ledger, and finally consumes the
// coupon. The whole call runs under the engine mutex, and the coupon flip is
// the last mutation: a checkout that fails partway never burns the coupon.
func (e *Engine) ProcessCheckout(ctx context.Context, items []order.CartItem, discountCode string) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	subtotal, err := e.subtotal(ctx, items)
	if err != nil {
		return nil, err
	}

	// Validate the coupon and compute the discount, but do not consume it
	// yet. The flip to used happens after every other mutation succeeded, so
	// a failure in any later step never burns the customer's coupon.
	discountApplied := decimal.Zero
	if discountCode != "" {
		c, err := e.coupons.FindUnused(ctx, discountCode)
		if err != nil {
			if errors.Is(err, coupon.ErrNotFound) {
				return nil, ErrInvalidCoupon
			}
			return nil, errors.Wrap(err, "lookup coupon")
		}

		discountApplied = subtotal.
			Mul(decimal.NewFromInt(int64(c.DiscountPercent))).
			Div(decimal.NewFromInt(100)).
			Round(2)
	}

	finalAmount := subtotal.Sub(discountApplied)

	// Reward cadence: the new order's 1-based position is count+1.
	count, err := e.orders.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count orders")
	}

	// If the ledger append below fails, the persisted reward is an unused
	// coupon without an order, the same state a manual reward probe leaves.
	var rewardCoupon *coupon.Coupon
	if e.isRewardPosition(count + 1) {
		rc, err := e.issueReward(ctx)
		if err != nil {
			return nil, err
		}
		rewardCoupon = rc
	}

	o := &order.Order{
		ID:              e.newID(),
		Items:           items,
		TotalAmount:     subtotal,
		DiscountApplied: discountApplied,
		FinalAmount:     finalAmount,
		CreatedAt:       e.now(),
	}
	if err := e.orders.Append(ctx, o); err != nil {
		return nil, errors.Wrap(err, "append order")
	}

	if discountCode != "" {
		ok, err := e.coupons.MarkUsed(ctx, discountCode)
		if err != nil {
			return nil, errors.Wrap(err, "mark coupon used")
		}
		if !ok {
			// Unreachable in-process: the engine mutex serializes every
			// consumer between FindUnused and this flip.
			return nil, errors.Errorf("coupon %s consumed mid-checkout", discountCode)
		}
	}

	return &Result{
		Order:           o,
		DiscountApplied: discountApplied,
		FinalAmount:     finalAmount,
		RewardCoupon:    rewardCoupon,
	}, nil
}

// TriggerRewardCheck applies the reward cadence against the current ledger
// length without placing an order. When the next order position is a reward
// position it generates and persists a coupon, the same side effect a
// triggering checkout has.
func (e *Engine) TriggerRewardCheck(ctx context.Context) (*RewardCheck, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	count, err := e.orders.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count orders")
	}

	if !e.isRewardPosition(count + 1) {
		next := (count/e.everyN + 1) * e.everyN
		return &RewardCheck{
			OrderCount:   count,
			OrdersNeeded: next - count,
		}, nil
	}

	rc, err := e.issueReward(ctx)
	if err != nil {
		return nil, err
	}
	return &RewardCheck{Coupon: rc, OrderCount: count}, nil
}

// RewardEveryN returns the configured reward cadence.
func (e *Engine) RewardEveryN() int {
	return e.everyN
}

// isRewardPosition reports whether the 1-based order position lands on the
// cadence. Rewards trigger at positions N, 2N, 3N, and so on; position 1
// only triggers when N is 1.
func (e *Engine) isRewardPosition(position int) bool {
	return position%e.everyN == 0
}

// issueReward rolls the generator and persists the resulting coupon unused.
func (e *Engine) issueReward(ctx context.Context) (*coupon.Coupon, error) {
	rw, err := e.rewards.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "generate reward")
	}

	c := coupon.Coupon{
		Code:            rw.Code,
		DiscountPercent: rw.DiscountPercent,
		Tier:            rw.Tier,
		Used:            false,
		CreatedAt:       e.now(),
	}
	if err := e.coupons.Add(ctx, c); err != nil {
		return nil, errors.Wrap(err, "store reward coupon")
	}
	return &c, nil
}

// subtotal resolves every cart item against the catalog in one batch and sums
// quantity × unit price. Any unresolvable id aborts the checkout.
func (e *Engine) subtotal(ctx context.Context, items []order.CartItem) (decimal.Decimal, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	fetched, err := e.products.GetByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get products")
	}

	priceByID := make(map[string]decimal.Decimal, len(fetched))
	for _, p := range fetched {
		priceByID[p.ID] = p.Price
	}

	subtotal := decimal.Zero
	for _, item := range items {
		price, ok := priceByID[item.ProductID]
		if !ok {
			return decimal.Zero, &ProductNotFoundError{ProductID: item.ProductID}
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal, nil
}
