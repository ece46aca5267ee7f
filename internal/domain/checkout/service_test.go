package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/order"
	"github.com/lootcart/lootcart/internal/domain/product"
	"github.com/lootcart/lootcart/internal/domain/reward"
	"github.com/lootcart/lootcart/internal/storage/memory"
)

// newTestEngine wires an Engine against a fresh in-memory store with the
// given catalog and cadence.
func newTestEngine(t *testing.T, everyN int, products ...product.Product) (*Engine, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	for _, p := range products {
		require.NoError(t, store.Products().Add(context.Background(), p))
	}

	gen, err := reward.New(reward.DefaultConfig())
	require.NoError(t, err)

	engine, err := NewEngine(store.Products(), store.Coupons(), store.Orders(), gen, everyN)
	require.NoError(t, err)
	return engine, store
}

func widget() product.Product {
	return product.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("100.00")}
}

func gadget() product.Product {
	return product.Product{ID: "p2", Name: "Gadget", Price: decimal.RequireFromString("49.99")}
}

func seedCoupon(t *testing.T, store *memory.Store, code string, percent int) {
	t.Helper()
	require.NoError(t, store.Coupons().Add(context.Background(), coupon.Coupon{
		Code:            code,
		DiscountPercent: percent,
		Tier:            coupon.TierCommon,
		CreatedAt:       time.Now(),
	}))
}

func TestNewEngine_RejectsBadCadence(t *testing.T) {
	store := memory.NewStore()
	gen, err := reward.New(reward.DefaultConfig())
	require.NoError(t, err)

	_, err = NewEngine(store.Products(), store.Coupons(), store.Orders(), gen, 0)
	require.Error(t, err)

	_, err = NewEngine(store.Products(), store.Coupons(), store.Orders(), gen, -3)
	require.Error(t, err)
}

func TestProcessCheckout_EmptyItems(t *testing.T) {
	engine, _ := newTestEngine(t, 4, widget())

	_, err := engine.ProcessCheckout(context.Background(), nil, "")
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestProcessCheckout_InvalidQuantity(t *testing.T) {
	engine, _ := newTestEngine(t, 4, widget())

	_, err := engine.ProcessCheckout(context.Background(), []order.CartItem{
		{ProductID: "p1", Quantity: 0},
	}, "")

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestProcessCheckout_ProductNotFound(t *testing.T) {
	engine, store := newTestEngine(t, 4, widget())

	_, err := engine.ProcessCheckout(context.Background(), []order.CartItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "missing", Quantity: 2},
	}, "")

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)

	// Failed checkout leaves the ledger untouched.
	count, err := store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessCheckout_NoCoupon(t *testing.T) {
	engine, store := newTestEngine(t, 4, widget(), gadget())

	result, err := engine.ProcessCheckout(context.Background(), []order.CartItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}, "")
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("249.99").Equal(result.Order.TotalAmount))
	assert.True(t, decimal.Zero.Equal(result.DiscountApplied))
	assert.True(t, decimal.RequireFromString("249.99").Equal(result.FinalAmount))
	assert.Nil(t, result.RewardCoupon)
	assert.NotEmpty(t, result.Order.ID)
	assert.False(t, result.Order.CreatedAt.IsZero())

	count, err := store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessCheckout_WithCoupon(t *testing.T) {
	engine, store := newTestEngine(t, 4, widget())
	seedCoupon(t, store, "TENOFF22", 10)

	result, err := engine.ProcessCheckout(context.Background(), []order.CartItem{
		{ProductID: "p1", Quantity: 2},
	}, "TENOFF22")
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("200.00").Equal(result.Order.TotalAmount))
	assert.True(t, decimal.RequireFromString("20.00").Equal(result.DiscountApplied))
	assert.True(t, decimal.RequireFromString("180.00").Equal(result.FinalAmount))

	// The coupon is consumed: a second checkout with the same code fails and
	// creates no order.
	_, err = engine.ProcessCheckout(context.Background(), []order.CartItem{
		{ProductID: "p1", Quantity: 1},
	}, "TENOFF22")
	require.ErrorIs(t, err, ErrInvalidCoupon)

	count, err := store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessCheckout_UnknownCoupon(t *testing.T) {
	engine, store := newTestEngine(t, 4, widget())

	_, err := engine.ProcessCheckout(context.Background(), []order.CartItem{
		{ProductID: "p1", Quantity: 1},
	}, "NOSUCHCD")
	require.ErrorIs(t, err, ErrInvalidCoupon)

	count, err := store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessCheckout_RewardCadence(t *testing.T) {
	engine, _ := newTestEngine(t, 4, widget())
	items := []order.CartItem{{ProductID: "p1", Quantity: 1}}

	for i := 1; i <= 3; i++ {
		result, err := engine.ProcessCheckout(context.Background(), items, "")
		require.NoError(t, err)
		assert.Nil(t, result.RewardCoupon, "order %d must not earn a reward", i)
	}

	result, err := engine.ProcessCheckout(context.Background(), items, "")
	require.NoError(t, err)
	require.NotNil(t, result.RewardCoupon, "4th order must earn a reward")

	rc := result.RewardCoupon
	assert.Len(t, rc.Code, reward.CodeLength)
	assert.True(t, rc.Tier.Valid())
	assert.Equal(t, reward.DiscountPercent(rc.Tier), rc.DiscountPercent)
	assert.False(t, rc.Used)

	// The reward is persisted unused and applies to a future purchase, not
	// the order that earned it.
	assert.True(t, decimal.RequireFromString("100.00").Equal(result.FinalAmount))

	redeemed, err := engine.ProcessCheckout(context.Background(), items, rc.Code)
	require.NoError(t, err)
	assert.True(t, redeemed.DiscountApplied.GreaterThan(decimal.Zero))
}

func TestProcessCheckout_CadenceAcrossOrders(t *testing.T) {
	for _, everyN := range []int{1, 2, 4} {
		engine, _ := newTestEngine(t, everyN, widget())
		items := []order.CartItem{{ProductID: "p1", Quantity: 1}}

		for i := 1; i <= 12; i++ {
			result, err := engine.ProcessCheckout(context.Background(), items, "")
			require.NoError(t, err)

			if i%everyN == 0 {
				assert.NotNil(t, result.RewardCoupon, "N=%d: order %d must earn a reward", everyN, i)
			} else {
				assert.Nil(t, result.RewardCoupon, "N=%d: order %d must not earn a reward", everyN, i)
			}
		}
	}
}

func TestProcessCheckout_RewardEveryOrder(t *testing.T) {
	engine, _ := newTestEngine(t, 1, widget())
	items := []order.CartItem{{ProductID: "p1", Quantity: 1}}

	for i := 1; i <= 3; i++ {
		result, err := engine.ProcessCheckout(context.Background(), items, "")
		require.NoError(t, err)
		assert.NotNil(t, result.RewardCoupon, "with cadence 1 every order earns a reward")
	}
}

func TestTriggerRewardCheck_NotMet(t *testing.T) {
	engine, _ := newTestEngine(t, 4, widget())

	check, err := engine.TriggerRewardCheck(context.Background())
	require.NoError(t, err)

	assert.Nil(t, check.Coupon)
	assert.Equal(t, 0, check.OrderCount)
	assert.Equal(t, 4, check.OrdersNeeded)
}

func TestTriggerRewardCheck_Met(t *testing.T) {
	engine, store := newTestEngine(t, 4, widget())
	items := []order.CartItem{{ProductID: "p1", Quantity: 1}}

	for range 3 {
		_, err := engine.ProcessCheckout(context.Background(), items, "")
		require.NoError(t, err)
	}

	check, err := engine.TriggerRewardCheck(context.Background())
	require.NoError(t, err)

	require.NotNil(t, check.Coupon)
	assert.Equal(t, 3, check.OrderCount)
	assert.Len(t, check.Coupon.Code, reward.CodeLength)

	// The probe persists the coupon just like a triggering checkout would.
	found, err := store.Coupons().FindUnused(context.Background(), check.Coupon.Code)
	require.NoError(t, err)
	assert.Equal(t, check.Coupon.Code, found.Code)
}

func TestTriggerRewardCheck_PastCadence(t *testing.T) {
	engine, _ := newTestEngine(t, 4, widget())
	items := []order.CartItem{{ProductID: "p1", Quantity: 1}}

	for range 4 {
		_, err := engine.ProcessCheckout(context.Background(), items, "")
		require.NoError(t, err)
	}

	check, err := engine.TriggerRewardCheck(context.Background())
	require.NoError(t, err)

	assert.Nil(t, check.Coupon)
	assert.Equal(t, 4, check.OrderCount)
	assert.Equal(t, 4, check.OrdersNeeded)
}

// failingLedger delegates reads to the wrapped ledger and fails every append.
type failingLedger struct {
	order.Ledger
}

func (l *failingLedger) Append(context.Context, *order.Order) error {
	return errors.New("ledger write failed")
}

// failingCouponStore delegates to the wrapped store and rejects inserts.
type failingCouponStore struct {
	coupon.Store
}

func (s *failingCouponStore) Add(context.Context, coupon.Coupon) error {
	return errors.New("coupon write failed")
}

func TestProcessCheckout_LedgerFailureKeepsCoupon(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Add(ctx, widget()))
	seedCoupon(t, store, "TENOFF22", 10)

	gen, err := reward.New(reward.DefaultConfig())
	require.NoError(t, err)
	engine, err := NewEngine(
		store.Products(), store.Coupons(), &failingLedger{Ledger: store.Orders()}, gen, 4,
	)
	require.NoError(t, err)

	_, err = engine.ProcessCheckout(ctx, []order.CartItem{
		{ProductID: "p1", Quantity: 1},
	}, "TENOFF22")
	require.Error(t, err)

	// The failed checkout must not consume the coupon.
	c, err := store.Coupons().FindUnused(ctx, "TENOFF22")
	require.NoError(t, err)
	assert.False(t, c.Used)
}

func TestProcessCheckout_RewardStoreFailureLeavesNoOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Add(ctx, widget()))
	seedCoupon(t, store, "TENOFF22", 10)

	gen, err := reward.New(reward.DefaultConfig())
	require.NoError(t, err)
	engine, err := NewEngine(
		store.Products(), &failingCouponStore{Store: store.Coupons()}, store.Orders(), gen, 1,
	)
	require.NoError(t, err)

	// Cadence 1 makes the first order a reward position; persisting the
	// reward fails before anything else mutates.
	_, err = engine.ProcessCheckout(ctx, []order.CartItem{
		{ProductID: "p1", Quantity: 1},
	}, "TENOFF22")
	require.Error(t, err)

	count, err := store.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	c, err := store.Coupons().FindUnused(ctx, "TENOFF22")
	require.NoError(t, err)
	assert.False(t, c.Used)
}

func TestProcessCheckout_ConcurrentCouponUse(t *testing.T) {
	engine, store := newTestEngine(t, 100, widget())
	seedCoupon(t, store, "RACEME01", 10)
	items := []order.CartItem{{ProductID: "p1", Quantity: 1}}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		invalids  int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ProcessCheckout(context.Background(), items, "RACEME01")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidCoupon):
				invalids++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one checkout may consume the coupon")
	assert.Equal(t, workers-1, invalids)

	count, err := store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the winning checkout creates an order")
}
