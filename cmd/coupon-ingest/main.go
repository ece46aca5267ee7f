package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/reward"
	"github.com/lootcart/lootcart/internal/storage/postgres"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	codeChanSize  = 4096
)

const upsertCouponSQL = `INSERT INTO coupons (code, discount_percent, tier, used, created_at)
	VALUES ($1, $2, $3, FALSE, $4)
	ON CONFLICT (code) DO NOTHING`

func main() {
	var (
		dataDir     string
		databaseURL string
		tierName    string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing partner code lists (*.gz)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&tierName, "tier", string(coupon.TierCommon), "tier to assign to imported codes (COMMON, RARE, LEGENDARY)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	tier := coupon.Tier(tierName)
	if !tier.Valid() {
		slog.Error("unknown tier", slog.String("tier", tierName))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, tier); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, tier coupon.Tier) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list data files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("importing partner code lists",
		slog.Int("files", len(files)),
		slog.String("tier", string(tier)),
	)

	inserted, err := importCodes(ctx, pool, files, tier)
	if err != nil {
		return err
	}

	slog.Info("import finished", slog.Int64("inserted", inserted))
	return nil
}

// importCodes streams every file concurrently and funnels codes into a single
// writer goroutine. The writer owns the bloom filter, so cross-file dedupe
// needs no locking. A bloom false positive drops a novel code once in ~1000,
// which is acceptable for bulk import; ON CONFLICT keeps re-runs idempotent.
func importCodes(ctx context.Context, pool *pgxpool.Pool, files []string, tier coupon.Tier) (int64, error) {
	codes := make(chan string, codeChanSize)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(streamCodes(ctx, f, codes))
	}
	go func() {
		_ = g.Wait()
		close(codes)
	}()

	var (
		seen     = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		percent  = reward.DiscountPercent(tier)
		now      = time.Now().UTC()
		inserted int64
		total    int64
	)
	for code := range codes {
		total++
		if total%progressEvery == 0 {
			slog.Info("import progress", slog.Int64("codes", total), slog.Int64("inserted", inserted))
		}

		if seen.TestOrAddString(code) {
			continue
		}

		tag, err := pool.Exec(ctx, upsertCouponSQL, code, percent, string(tier), now)
		if err != nil {
			return inserted, errors.Wrapf(err, "insert coupon %s", code)
		}
		inserted += tag.RowsAffected()
	}

	if err := g.Wait(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// streamCodes reads one gzip-compressed file line by line and sends every
// well-formed code downstream. Lines that do not look like coupon codes are
// skipped.
func streamCodes(ctx context.Context, path string, out chan<- string) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var kept uint64
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			code := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if !validCode(code) {
				continue
			}
			kept++

			select {
			case out <- code:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file scanned", slog.String("path", path), slog.Uint64("codes", kept))
		return nil
	}
}

// validCode reports whether s matches the issued-coupon shape: uppercase
// alphanumeric, fixed length.
func validCode(s string) bool {
	if len(s) != reward.CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
