package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/episodes/internal/episodes/application"
	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
)

// ErrNotInitialized is returned by commands run without a database.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	PositionManager *application.PositionManager

	// Migrate applies pending schema migrations.
	Migrate func(ctx context.Context) ([]string, error)

	// Ping checks database connectivity.
	Ping func(ctx context.Context) error
}

// NewApp creates a new CLI application.
func NewApp(manager *application.PositionManager) *App {
	return &App{PositionManager: manager}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil || app.PositionManager == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// ParseID parses a UUID argument, naming it in the error.
func ParseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, value, domain.ErrInvalidInput)
	}
	return id, nil
}
