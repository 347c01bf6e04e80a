package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fieldhouse/fieldhouse/internal/cache"
	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/social"
	"github.com/fieldhouse/fieldhouse/internal/sweeper"
	"github.com/fieldhouse/fieldhouse/pkg/config"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
	"github.com/fieldhouse/fieldhouse/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Fieldhouse Notification Sweeper")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Connect to Redis (optional)
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	sink := social.NewSink(database.DB, redisCache)
	sweep := sweeper.New(sink, &cfg.Social)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sweep.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Sweeper failed", zap.Error(err))
	}

	logger.Info("Sweeper exited")
}
