package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
)

func TestTxOptions(t *testing.T) {
	tests := []struct {
		name     string
		level    database.IsolationLevel
		expected pgx.TxIsoLevel
		wantErr  bool
	}{
		{name: "default is read committed", level: "", expected: pgx.ReadCommitted},
		{name: "read committed", level: database.IsolationReadCommitted, expected: pgx.ReadCommitted},
		{name: "serializable", level: database.IsolationSerializable, expected: pgx.Serializable},
		{name: "unknown level", level: "chaos", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := txOptions(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, opts.IsoLevel)
		})
	}
}

func TestNewConnection_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("requires URL", func(t *testing.T) {
		_, err := NewConnection(ctx, database.Config{Driver: database.DriverPostgres})
		assert.ErrorContains(t, err, "database URL is required")
	})

	t.Run("rejects malformed URL", func(t *testing.T) {
		_, err := NewConnection(ctx, database.Config{URL: "postgres://%zz"})
		assert.ErrorContains(t, err, "failed to parse database URL")
	})

	t.Run("rejects unknown isolation level", func(t *testing.T) {
		_, err := NewConnection(ctx, database.Config{
			URL:       "postgres://episodes@localhost:5432/episodes",
			Isolation: "chaos",
		})
		assert.ErrorContains(t, err, "unsupported isolation level")
	})
}
