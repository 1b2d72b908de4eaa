// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-provisioning/cmd"
	"account-provisioning/internal/data/cache"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/wire"
	"account-provisioning/pkg/database"
	"account-provisioning/pkg/tracing"
	"account-provisioning/pkg/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, logger, config.Tracing.Endpoint, config.App.Name, config.App.Environment)
	if err != nil {
		logger.Fatal("Failed to init tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	// Vendor profile cache is optional
	vendorCache := cache.NewNopVendorCache()
	if config.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, config.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, vendor cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			vendorCache = cache.NewRedisVendorCache(rdb, config.Redis.CacheTTL, logger)
			logger.Info("Vendor cache enabled", zap.Duration("ttl", config.Redis.CacheTTL))
		}
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app, err := wire.Wiring(repos, vendorCache, config, logger)
	if err != nil {
		logger.Fatal("Failed to wire application", zap.Error(err))
	}

	go app.Reconciler.Start(ctx)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	handler := otelhttp.NewHandler(app.Router, config.App.Name)
	if err := cmd.APIServer(ctx, handler, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
