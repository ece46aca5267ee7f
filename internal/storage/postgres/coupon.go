package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lootcart/lootcart/internal/domain/coupon"
)

const (
	findUnusedCouponSQL = `SELECT code, discount_percent, tier, used, created_at
		FROM coupons WHERE code = $1 AND used = FALSE`

	// The used = FALSE guard makes the transition monotonic at the database
	// level: two racing consumers cannot both see RowsAffected = 1.
	markCouponUsedSQL = `UPDATE coupons SET used = TRUE WHERE code = $1 AND used = FALSE`

	insertCouponSQL = `INSERT INTO coupons (code, discount_percent, tier, used, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	listCouponsSQL = `SELECT code, discount_percent, tier, used, created_at
		FROM coupons ORDER BY created_at, code`
)

var _ coupon.Store = (*CouponStore)(nil)

// CouponStore implements coupon.Store backed by PostgreSQL.
type CouponStore struct {
	pool *pgxpool.Pool
}

// NewCouponStore returns a CouponStore that uses the given pool.
func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

// FindUnused looks up an unconsumed coupon by code.
// Returns coupon.ErrNotFound when the code is unknown or already used.
func (s *CouponStore) FindUnused(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := s.pool.Query(ctx, findUnusedCouponSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// MarkUsed consumes a coupon. Reports false when no unused coupon matched.
func (s *CouponStore) MarkUsed(ctx context.Context, code string) (bool, error) {
	tag, err := s.pool.Exec(ctx, markCouponUsedSQL, code)
	if err != nil {
		return false, fmt.Errorf("marking coupon %q used: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Add inserts a freshly issued coupon.
func (s *CouponStore) Add(ctx context.Context, c coupon.Coupon) error {
	_, err := s.pool.Exec(ctx, insertCouponSQL,
		c.Code, c.DiscountPercent, string(c.Tier), c.Used, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// All returns every issued coupon in issue order.
func (s *CouponStore) All(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := s.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c    coupon.Coupon
		tier string
	)
	err := row.Scan(&c.Code, &c.DiscountPercent, &tier, &c.Used, &c.CreatedAt)
	c.Tier = coupon.Tier(tier)
	return c, err
}
