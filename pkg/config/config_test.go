package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
)

// clearEnv blanks every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FORMAT",
		"DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH", "DATABASE_MAX_CONNS",
		"DATABASE_ISOLATION", "SQLITE_BUSY_TIMEOUT",
		"EVENT_BROKER", "RABBITMQ_URL", "RABBITMQ_EXCHANGE", "REDIS_URL", "REDIS_CHANNEL_PREFIX",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_RETRY_BACKOFF_BASE", "OUTBOX_RETRY_BACKOFF_MAX", "OUTBOX_STATS_INTERVAL",
		"OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL", "OUTBOX_MAX_PENDING",
		"BREAKER_FAILURE_THRESHOLD", "BREAKER_OPEN_TIMEOUT", "WORKER_HEALTH_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, database.DriverSQLite, cfg.Driver())
	assert.Equal(t, BrokerNone, cfg.EventBroker)
	assert.Equal(t, 100*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 14, cfg.OutboxRetentionDays)
	assert.Equal(t, uint32(5), cfg.BreakerFailureThreshold)
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://episodes:secret@db:5432/episodes")
	t.Setenv("DATABASE_ISOLATION", "serializable")
	t.Setenv("EVENT_BROKER", "RabbitMQ")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "20")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BrokerRabbitMQ, cfg.EventBroker)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 20, cfg.OutboxBatchSize)
	assert.Equal(t, time.Minute, cfg.BreakerOpenTimeout)

	db := cfg.Database()
	assert.Equal(t, database.DriverPostgres, db.Driver)
	assert.Equal(t, "postgres://episodes:secret@db:5432/episodes", db.URL)
	assert.Equal(t, database.IsolationSerializable, db.Isolation)
	assert.Equal(t, 10, db.MaxConns)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTBOX_MAX_RETRIES", "many")
	t.Setenv("OUTBOX_STATS_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.OutboxStatsInterval)
}

func TestLoad_ExplicitSQLite(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "postgres://ignored")
	t.Setenv("SQLITE_PATH", "/tmp/episodes.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, database.DriverSQLite, cfg.Driver())
	assert.Equal(t, "/tmp/episodes.db", cfg.Database().SQLitePath)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown broker",
			env:  map[string]string{"EVENT_BROKER": "kafka"},
			want: "EVENT_BROKER",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"DATABASE_DRIVER": "mysql"},
			want: "DATABASE_DRIVER",
		},
		{
			name: "postgres without url",
			env:  map[string]string{"DATABASE_DRIVER": "postgres"},
			want: "DATABASE_URL",
		},
		{
			name: "empty batches",
			env:  map[string]string{"OUTBOX_BATCH_SIZE": "0"},
			want: "OUTBOX_BATCH_SIZE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
