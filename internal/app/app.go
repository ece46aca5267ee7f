package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/lootcart/lootcart/internal/domain/cart"
	"github.com/lootcart/lootcart/internal/domain/checkout"
	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/order"
	"github.com/lootcart/lootcart/internal/domain/product"
	"github.com/lootcart/lootcart/internal/domain/reward"
	"github.com/lootcart/lootcart/internal/domain/stats"
	"github.com/lootcart/lootcart/internal/handler"
	"github.com/lootcart/lootcart/internal/seed"
	"github.com/lootcart/lootcart/internal/storage/memory"
	"github.com/lootcart/lootcart/internal/storage/postgres"
	"github.com/lootcart/lootcart/pkg/health"
	"github.com/lootcart/lootcart/pkg/httpmiddleware"
)

// stores bundles one storage backend's repositories.
type stores struct {
	products product.Repository
	coupons  coupon.Store
	orders   order.Ledger
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Int("reward_every_n", cfg.Reward.EveryN),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	st, cleanup, err := buildStores(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer cleanup()

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	generator, err := reward.New(cfg.Reward.Weights)
	if err != nil {
		return errors.Wrap(err, "create reward generator")
	}
	engine, err := checkout.NewEngine(st.products, st.coupons, st.orders, generator, cfg.Reward.EveryN)
	if err != nil {
		return errors.Wrap(err, "create checkout engine")
	}
	cartSvc := cart.NewService(st.products)
	statsSvc := stats.NewService(st.orders, st.coupons)

	// HTTP routes: health endpoints + API on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(st.products, cartSvc, engine, statsSvc).Register(mux)

	instrument, err := httpmiddleware.Instrument("lootcart-api", m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create metrics middleware")
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "lootcart-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			instrument,
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildStores selects the storage backend: PostgreSQL when DatabaseURL is
// set, otherwise the in-memory store seeded with the demo catalog. The
// returned cleanup closes backend resources.
func buildStores(ctx context.Context, lg *zap.Logger, cfg *Config, healthSvc *health.Health) (stores, func(), error) {
	if cfg.DatabaseURL == "" {
		lg.Info("Using in-memory store")
		store := memory.NewStore()
		if err := seedCatalog(ctx, store.Products()); err != nil {
			return stores{}, nil, errors.Wrap(err, "seed catalog")
		}
		return stores{
			products: store.Products(),
			coupons:  store.Coupons(),
			orders:   store.Orders(),
		}, func() {}, nil
	}

	lg.Info("Using PostgreSQL store")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return stores{}, nil, errors.Wrap(err, "run migrations")
	}

	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return stores{
		products: postgres.NewProductRepository(pool),
		coupons:  postgres.NewCouponStore(pool),
		orders:   postgres.NewOrderLedger(pool),
	}, pool.Close, nil
}

// seedCatalog loads the embedded demo products into an empty repository.
func seedCatalog(ctx context.Context, repo product.Repository) error {
	products, err := seed.Products()
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := repo.Add(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
