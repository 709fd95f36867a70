package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/episodes/internal/episodes/application"
	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
	"github.com/felixgeelhaar/episodes/internal/episodes/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/episodes/internal/shared/application"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/episodes/pkg/config"
	"github.com/felixgeelhaar/episodes/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Repositories
	EpisodeRepo domain.Repository
	OutboxRepo  outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	Metrics *observability.InMemoryMetrics

	PositionManager *application.PositionManager
}

// NewContainer opens the configured database and wires the position manager.
// SQLite databases are migrated on open so local use needs no setup step;
// PostgreSQL schemas are managed explicitly through Migrate.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := database.NewConnection(ctx, cfg.Database())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		DBConn:   conn,
		DBDriver: conn.Driver(),
		Metrics:  observability.NewInMemoryMetrics(),
	}
	logger.Info("connected to database", "driver", c.DBDriver)

	if c.DBDriver == database.DriverSQLite {
		if _, err := c.Migrate(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	c.EpisodeRepo = persistence.NewSQLRepository(conn)
	c.OutboxRepo = outbox.NewSQLRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)
	c.PositionManager = application.NewPositionManager(c.EpisodeRepo, c.OutboxRepo, c.UnitOfWork, logger).
		WithMetrics(c.Metrics)

	return c, nil
}

// Migrate applies pending schema migrations and returns their versions.
func (c *Container) Migrate(ctx context.Context) ([]string, error) {
	applied, err := migrations.Run(ctx, c.DBConn)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		c.Logger.Info("migrations applied", "driver", c.DBDriver, "versions", applied)
	}
	return applied, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Error("failed to close database connection", "error", err)
		}
	}
}
