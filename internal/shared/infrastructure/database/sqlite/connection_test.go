package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
)

func openTestConnection(t *testing.T) database.Connection {
	t.Helper()

	conn, err := NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(context.Background(),
		`CREATE TABLE slots (id TEXT PRIMARY KEY, grp TEXT NOT NULL, position INTEGER NOT NULL)`)
	require.NoError(t, err)

	return conn
}

func TestNewConnection(t *testing.T) {
	conn := openTestConnection(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_RegisteredWithFactory(t *testing.T) {
	conn, err := database.NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "nested", "factory.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	result, err := conn.Exec(ctx, `INSERT INTO slots (id, grp, position) VALUES (?, ?, ?)`, "a", "g", 1)
	require.NoError(t, err)

	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = conn.Exec(ctx, `INSERT INTO slots (id, grp, position) VALUES (?, ?, ?)`, "b", "g", 2)
	require.NoError(t, err)

	var position int64
	require.NoError(t, conn.QueryRow(ctx, `SELECT position FROM slots WHERE id = ?`, "b").Scan(&position))
	assert.Equal(t, int64(2), position)

	rows, err := conn.Query(ctx, `SELECT id FROM slots ORDER BY position DESC`)
	require.NoError(t, err)
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"b", "a"}, ids)
}

func TestConnection_NumberedPlaceholders(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	_, err := conn.Exec(ctx, `INSERT INTO slots (id, grp, position) VALUES ($1, $2, $3), ($4, $2, $3 + 1)`, "a", "g", 7, "b")
	require.NoError(t, err)

	var highest int64
	require.NoError(t, conn.QueryRow(ctx, `SELECT MAX(position) FROM slots WHERE grp = $1`, "g").Scan(&highest))
	assert.Equal(t, int64(8), highest)
}

func TestConnection_Transaction(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	_, err := conn.Exec(ctx, `INSERT INTO slots (id, grp, position) VALUES ('a', 'g', 1), ('b', 'g', 2)`)
	require.NoError(t, err)

	t.Run("commit keeps a bulk shift", func(t *testing.T) {
		tx, err := conn.BeginTx(ctx)
		require.NoError(t, err)

		result, err := tx.Exec(ctx, `UPDATE slots SET position = position + 1 WHERE grp = ? AND position >= ?`, "g", 1)
		require.NoError(t, err)
		affected, err := result.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)

		require.NoError(t, tx.Commit(ctx))

		var sum int64
		require.NoError(t, conn.QueryRow(ctx, `SELECT SUM(position) FROM slots`).Scan(&sum))
		assert.Equal(t, int64(5), sum)
	})

	t.Run("rollback discards a bulk shift", func(t *testing.T) {
		tx, err := conn.BeginTx(ctx)
		require.NoError(t, err)

		_, err = tx.Exec(ctx, `UPDATE slots SET position = position + 10 WHERE grp = ?`, "g")
		require.NoError(t, err)

		require.NoError(t, tx.Rollback(ctx))

		var sum int64
		require.NoError(t, conn.QueryRow(ctx, `SELECT SUM(position) FROM slots`).Scan(&sum))
		assert.Equal(t, int64(5), sum)
	})
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		timeout  time.Duration
		contains []string
		absent   []string
	}{
		{
			name:     "file path gets WAL and default busy timeout",
			path:     "/tmp/data.db",
			contains: []string{"/tmp/data.db?", "journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(1)"},
		},
		{
			name:     "custom busy timeout",
			path:     "/tmp/data.db",
			timeout:  250 * time.Millisecond,
			contains: []string{"busy_timeout(250)"},
		},
		{
			name:     "memory database skips WAL",
			path:     ":memory:",
			contains: []string{":memory:?"},
			absent:   []string{"journal_mode"},
		},
		{
			name:     "existing query string is extended",
			path:     "/tmp/data.db?mode=rwc",
			contains: []string{"mode=rwc&_pragma"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildDSN(tt.path, tt.timeout)
			for _, s := range tt.contains {
				assert.Contains(t, dsn, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, dsn, s)
			}
		})
	}
}
