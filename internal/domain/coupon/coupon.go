package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Tier classifies a coupon by the reward roll that produced it.
type Tier string

const (
	// TierCommon is the baseline reward: 10% off.
	TierCommon Tier = "COMMON"
	// TierRare is the mid reward: 15% off.
	TierRare Tier = "RARE"
	// TierLegendary is the top reward: 25% off.
	TierLegendary Tier = "LEGENDARY"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierCommon, TierRare, TierLegendary:
		return true
	}
	return false
}

// ErrNotFound is returned when no unused coupon exists for a code.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a single-use discount code. Used transitions false→true exactly
// once, at checkout; coupons are never deleted.
type Coupon struct {
	Code            string
	DiscountPercent int
	Tier            Tier
	Used            bool
	CreatedAt       time.Time
}

// Store provides lookup and mutation of issued coupons.
type Store interface {
	// FindUnused returns the coupon for code only if it exists and has not
	// been consumed. Returns ErrNotFound otherwise.
	FindUnused(ctx context.Context, code string) (*Coupon, error)
	// MarkUsed flips the coupon to used. It reports false when the code is
	// unknown or the coupon was already consumed; the transition is monotonic.
	MarkUsed(ctx context.Context, code string) (bool, error)
	Add(ctx context.Context, c Coupon) error
	All(ctx context.Context) ([]Coupon, error)
}
