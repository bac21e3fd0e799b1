package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridepay/internal/app"
	"ridepay/internal/config"
	"ridepay/internal/events"
	"ridepay/internal/gateway"
	"ridepay/internal/handler"
	"ridepay/internal/logging"
	"ridepay/internal/middleware"
	internalRedis "ridepay/internal/redis"
	"ridepay/internal/repository/postgres"
	"ridepay/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.RunMigrations {
		if err := app.RunMigrations(ctx, db, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Redis is optional. Without it settlement relies on the database
	// guards alone and checkout runs without replay protection.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			logger.Warn("redis unavailable, continuing without lock and cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("connected to Redis")
		}
	}

	publisher, err := app.NewPublisher(cfg.Events)
	if err != nil {
		logger.Error("failed to create event publisher", "broker", cfg.Events.Broker, "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// Wire dependencies.
	server, sweeper := wireServer(db, redisClient, publisher, nrApp, cfg, logger)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Settlement.SweepInterval > 0 {
		go sweeper.Run(runCtx, cfg.Settlement.SweepInterval, cfg.Settlement.PendingMaxAge)
		logger.Info("pending sweeper started", "interval", cfg.Settlement.SweepInterval, "max_age", cfg.Settlement.PendingMaxAge)
	}

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// pending payment sweeper.
func wireServer(db *sql.DB, redisClient *redis.Client, publisher events.Publisher, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) (*http.Server, *service.PendingSweeper) {
	// Initialize repositories.
	repos := postgres.Repositories(db)
	txRunner := postgres.NewTxRunner(db)

	settlementDeps := service.SettlementDeps{
		TxRunner:  txRunner,
		Repos:     repos,
		LockTTL:   cfg.Settlement.LockTTL,
		Publisher: publisher,
		Logger:    logger,
	}
	var rideCache internalRedis.RideCacheInterface
	var idempotencyStore middleware.ResponseStore
	if redisClient != nil {
		// Initialize Redis stores.
		cacheStore := internalRedis.NewCacheStore(redisClient)
		settlementDeps.Locks = internalRedis.NewLockStore(redisClient)
		settlementDeps.Cache = cacheStore
		rideCache = cacheStore
		idempotencyStore = middleware.NewRedisResponseStore(redisClient)
	}

	// Payment gateway.
	verifier := gateway.NewStripeVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance, cfg.Stripe.IgnoreAPIVersionMismatch)
	checkoutGateway := gateway.NewStripeCheckout(cfg.Stripe)

	// Initialize services.
	settlementService := service.NewSettlementService(settlementDeps)
	checkoutService := service.NewCheckoutService(repos.Users, repos.Rides, repos.Pending, checkoutGateway, logger)
	queryService := service.NewQueryService(repos, rideCache, logger)
	rideService := service.NewRideService(txRunner, logger)
	sweeper := service.NewPendingSweeper(repos.Pending, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		PaymentHandler:    handler.NewPaymentHandler(verifier, settlementService, checkoutService, logger),
		RideHandler:       handler.NewRideHandler(rideService, queryService),
		UserHandler:       handler.NewUserHandler(repos.Users),
		SettlementHandler: handler.NewSettlementHandler(queryService),
		IdempotencyStore:  idempotencyStore,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Logger:            logger,
		NewRelicApp:       nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeper
}
