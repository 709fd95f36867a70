// Package dbtest opens migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/migrations"
)

// OpenSQLite returns a fully migrated SQLite connection in a temporary directory.
// The connection is closed when the test ends.
func OpenSQLite(t testing.TB) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "episodes.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)

	return conn
}
