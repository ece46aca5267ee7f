package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/reward"
	"github.com/lootcart/lootcart/internal/seed"
	"github.com/lootcart/lootcart/internal/storage/postgres"
)

const upsertCouponSQL = `INSERT INTO coupons (code, discount_percent, tier, used, created_at)
	VALUES ($1, $2, $3, FALSE, $4)
	ON CONFLICT (code) DO NOTHING`

// demoCoupons are pre-issued codes for manual testing of the checkout flow.
var demoCoupons = []struct {
	code string
	tier coupon.Tier
}{
	{code: "TENOFF22", tier: coupon.TierCommon},
	{code: "RARE15AB", tier: coupon.TierRare},
	{code: "LEGEND25", tier: coupon.TierLegendary},
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	products, err := seed.Products()
	if err != nil {
		return errors.Wrap(err, "load embedded catalog")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	repo := postgres.NewProductRepository(pool)
	for _, p := range products {
		if err := repo.Add(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupons")

	now := time.Now().UTC()
	for _, c := range demoCoupons {
		_, err := pool.Exec(ctx, upsertCouponSQL,
			c.code, reward.DiscountPercent(c.tier), string(c.tier), now,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("tier", string(c.tier)))
	}

	return nil
}
