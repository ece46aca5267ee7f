// Package reward implements the loot-box reward generator: a weighted random
// tier roll paired with a cryptographically sourced single-use coupon code.
package reward

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"io"
	"strings"

	"github.com/go-faster/errors"

	"github.com/lootcart/lootcart/internal/domain/coupon"
)

// CodeLength is the length of every generated coupon code.
const CodeLength = 8

// Discount percentages are fixed per tier; only the weights are tunable.
const (
	percentCommon    = 10
	percentRare      = 15
	percentLegendary = 25
)

// DiscountPercent returns the discount percentage bound to a tier.
func DiscountPercent(t coupon.Tier) int {
	switch t {
	case coupon.TierRare:
		return percentRare
	case coupon.TierLegendary:
		return percentLegendary
	default:
		return percentCommon
	}
}

// Config holds the relative selection weight of each tier.
// With the defaults the roll lands COMMON 90%, RARE 8%, LEGENDARY 2%.
type Config struct {
	CommonWeight    int `default:"90" usage:"Relative weight of COMMON rewards"`
	RareWeight      int `default:"8"  usage:"Relative weight of RARE rewards"`
	LegendaryWeight int `default:"2"  usage:"Relative weight of LEGENDARY rewards"`
}

// DefaultConfig returns the 90/8/2 production weights.
func DefaultConfig() Config {
	return Config{CommonWeight: 90, RareWeight: 8, LegendaryWeight: 2}
}

// Validate rejects weight sets that do not form a usable distribution.
// Every weight must be positive; this is checked once at startup so the
// generator can never divide by zero at request time.
func (c Config) Validate() error {
	if c.CommonWeight <= 0 || c.RareWeight <= 0 || c.LegendaryWeight <= 0 {
		return errors.Errorf("reward weights must be positive, got %d/%d/%d",
			c.CommonWeight, c.RareWeight, c.LegendaryWeight)
	}
	return nil
}

// Reward is the outcome of a single generator roll.
type Reward struct {
	Code            string
	DiscountPercent int
	Tier            coupon.Tier
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRandom overrides the randomness source. Intended for tests; production
// code uses crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// Generator produces rewards. It is stateless between calls and safe for
// concurrent use as long as the randomness source is (crypto/rand is).
type Generator struct {
	cfg    Config
	random io.Reader
}

// New creates a Generator, validating the weight configuration.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "reward config")
	}

	g := &Generator{cfg: cfg, random: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate rolls a tier and mints a fresh coupon code.
//
// Codes carry 48+ bits of entropy and are NOT checked against previously
// issued coupons; the collision probability is accepted as negligible.
func (g *Generator) Generate() (Reward, error) {
	tier, err := g.rollTier()
	if err != nil {
		return Reward{}, errors.Wrap(err, "roll tier")
	}

	code, err := g.generateCode()
	if err != nil {
		return Reward{}, errors.Wrap(err, "generate code")
	}

	return Reward{
		Code:            code,
		DiscountPercent: DiscountPercent(tier),
		Tier:            tier,
	}, nil
}

// rollTier draws a uniform value r in [0, totalWeight) and walks the tiers in
// fixed order (COMMON, RARE, LEGENDARY), selecting the first tier whose
// cumulative weight satisfies r <= cumulative. The half-open draw plus the
// inclusive comparison means a value landing exactly on a boundary selects
// the earlier tier.
func (g *Generator) rollTier() (coupon.Tier, error) {
	total := float64(g.cfg.CommonWeight + g.cfg.RareWeight + g.cfg.LegendaryWeight)

	var buf [8]byte
	if _, err := io.ReadFull(g.random, buf[:]); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	// Scale a uniform uint64 into [0, total).
	r := float64(binary.BigEndian.Uint64(buf[:])) / (1 << 64) * total

	cumulative := float64(g.cfg.CommonWeight)
	if r <= cumulative {
		return coupon.TierCommon, nil
	}
	cumulative += float64(g.cfg.RareWeight)
	if r <= cumulative {
		return coupon.TierRare, nil
	}
	return coupon.TierLegendary, nil
}

// generateCode builds an upper-case alphanumeric code of CodeLength characters
// from secure random bytes. Base64 output is filtered down to alphanumerics,
// so a single draw can come up short; further bytes are drawn until the code
// is complete.
func (g *Generator) generateCode() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)

	for b.Len() < CodeLength {
		var raw [6]byte
		if _, err := io.ReadFull(g.random, raw[:]); err != nil {
			return "", errors.Wrap(err, "read random")
		}

		encoded := base64.StdEncoding.EncodeToString(raw[:])
		for _, c := range encoded {
			if b.Len() == CodeLength {
				break
			}
			switch {
			case c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
				b.WriteRune(c)
			case c >= 'a' && c <= 'z':
				b.WriteRune(c - ('a' - 'A'))
			}
		}
	}

	return b.String(), nil
}
