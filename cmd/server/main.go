package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/eskildsen/idun/internal"
	"github.com/eskildsen/idun/internal/handler/api"
	"github.com/eskildsen/idun/internal/inventory"
	"github.com/eskildsen/idun/internal/middleware"
	"github.com/eskildsen/idun/internal/notify"
	"github.com/eskildsen/idun/internal/postgres"
	"github.com/eskildsen/idun/internal/router"
	"github.com/eskildsen/idun/internal/service"
	"github.com/eskildsen/idun/internal/tax"
	"github.com/eskildsen/idun/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Migrations run over database/sql; the application uses the pgx pool.
	logger.Info().Msg("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := postgres.New(pool)

	// Order lifecycle notifications go over NATS when configured, otherwise
	// they are logged.
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.NatsUrl != "" {
		conn, err := nats.Connect(cfg.NatsUrl,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer conn.Drain()
		notifier = notify.NewNATSNotifier(conn, logger)
		logger.Info().Str("url", cfg.NatsUrl).Msg("nats notifier connected")
	}

	httpMetrics := middleware.NewMetrics("idun")
	businessMetrics := telemetry.NewBusinessMetrics("idun")

	shippingTable, err := cfg.Shop.ShippingTable()
	if err != nil {
		return fmt.Errorf("shipping configuration invalid: %w", err)
	}
	vatCalculator := tax.NewVATCalculator(cfg.Shop.ParsedVATRate())
	ledger := inventory.NewLedger(store, logger, businessMetrics)

	cartService := service.NewCartService(store, store, vatCalculator, shippingTable, cfg.Shop.DefaultZone, logger, businessMetrics)
	checkoutService := service.NewCheckoutService(store, store, store, ledger, vatCalculator, shippingTable, cfg.Shop.DefaultZone, notifier, logger, businessMetrics)
	orderService := service.NewOrderService(store, ledger, notifier, logger, businessMetrics)
	catalogService := service.NewCatalogService(store, store, store, logger)

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		router.CORS([]string{"*"}),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	// Metrics endpoint; protect at the network layer in production.
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	api.RegisterRoutes(r, api.Services{
		Carts:    cartService,
		Checkout: checkoutService,
		Orders:   orderService,
		Catalog:  catalogService,
	}, shippingTable)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
