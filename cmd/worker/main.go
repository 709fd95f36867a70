package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/episodes/internal/app"
	"github.com/felixgeelhaar/episodes/pkg/config"
	"github.com/felixgeelhaar/episodes/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	logger := observability.LoggerFromEnv()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	logger.Info("starting episodes worker", "broker", cfg.EventBroker)

	// Create context with cancellation on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	publisher, err := app.NewEventPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		return 1
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()
	logger.Info("event publisher initialized", "broker", publisher.Broker)

	worker := app.NewWorker(cfg, container.DBConn, container.OutboxRepo, publisher, container.Metrics, logger)
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker failed", "error", err)
		return 1
	}
	logger.Info("worker stopped")
	return 0
}
