package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/episodes/adapter/cli"
	"github.com/felixgeelhaar/episodes/adapter/cli/episode"
	"github.com/felixgeelhaar/episodes/adapter/cli/part"
	"github.com/felixgeelhaar/episodes/internal/app"
	"github.com/felixgeelhaar/episodes/pkg/config"
	"github.com/felixgeelhaar/episodes/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Create context with cancellation on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return cli.ExitFailure
	}

	// The CLI stays quiet unless asked otherwise.
	logCfg := observability.DefaultLogConfig()
	logCfg.Level = observability.LogLevelWarn
	if os.Getenv("LOG_LEVEL") != "" {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		logCfg.Format = observability.LogFormat(cfg.LogFormat)
	}
	logCfg.Version = cli.Version
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			return cli.ExitStoreFailure
		}
		// In development, allow commands like version to run without a database
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		cliApp = cli.NewApp(container.PositionManager)
		cliApp.Migrate = container.Migrate
		cliApp.Ping = container.DBConn.Ping
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(episode.Cmd)
	cli.AddCommand(part.Cmd)

	// Execute CLI
	return cli.Execute(ctx)
}
