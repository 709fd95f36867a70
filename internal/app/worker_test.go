package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/episodes/pkg/config"
	"github.com/felixgeelhaar/episodes/pkg/observability"
)

func newTestWorker(t *testing.T, publisher *BrokerPublisher) (*Container, *Worker) {
	t.Helper()
	ctx := context.Background()
	cfg := localConfig(t)
	cfg.OutboxMaxRetries = 3
	cfg.OutboxRetentionDays = 7
	cfg.OutboxMaxPending = 100

	container, err := NewContainer(ctx, cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	if publisher == nil {
		publisher = &BrokerPublisher{Publisher: eventbus.NewNoopPublisher(testLogger()), Broker: config.BrokerNone}
	}
	return container, NewWorker(cfg, container.DBConn, container.OutboxRepo, publisher, container.Metrics, testLogger())
}

func seedEvents(t *testing.T, container *Container, n int) {
	t.Helper()
	ctx := context.Background()
	episode, err := container.PositionManager.CreateEpisode(ctx, "Pilot")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := container.PositionManager.Create(ctx, episode.ID, int64(i+1))
		require.NoError(t, err)
	}
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestWorker_ReportStats(t *testing.T) {
	ctx := context.Background()
	container, worker := newTestWorker(t, nil)
	seedEvents(t, container, 3)

	require.NoError(t, worker.Processor().ProcessOnce(ctx))
	worker.ReportStats(ctx)

	assert.Equal(t, int64(3), container.Metrics.GetCounter(observability.MetricOutboxPublished))
	assert.Equal(t, 0.0, container.Metrics.GetGauge(observability.MetricOutboxPending))

	// A second report without new activity adds nothing.
	worker.ReportStats(ctx)
	assert.Equal(t, int64(3), container.Metrics.GetCounter(observability.MetricOutboxPublished))
}

func TestWorker_Cleanup(t *testing.T) {
	ctx := context.Background()
	container, worker := newTestWorker(t, nil)
	seedEvents(t, container, 2)
	require.NoError(t, worker.Processor().ProcessOnce(ctx))

	// Freshly published messages are inside the retention window.
	deleted, err := worker.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestWorker_Handler(t *testing.T) {
	ctx := context.Background()
	container, worker := newTestWorker(t, nil)
	seedEvents(t, container, 1)
	h := worker.Handler()

	t.Run("healthz", func(t *testing.T) {
		rec, body := get(t, h, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, false, body["running"])
	})

	t.Run("readyz", func(t *testing.T) {
		rec, body := get(t, h, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, string(observability.HealthStatusHealthy), body["status"])
		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, checks, "database")
		assert.Contains(t, checks, "outbox")
	})

	t.Run("metrics", func(t *testing.T) {
		require.NoError(t, worker.Processor().ProcessOnce(ctx))
		worker.ReportStats(ctx)

		rec, body := get(t, h, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		counters, ok := body["counters"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 1.0, counters[observability.MetricOutboxPublished])
	})
}

func TestWorker_ReadyzUnhealthyDatabase(t *testing.T) {
	container, worker := newTestWorker(t, nil)
	require.NoError(t, container.DBConn.Close())

	rec, body := get(t, worker.Handler(), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, string(observability.HealthStatusUnhealthy), body["status"])
}

func TestWorker_ReadyzReportsOpenBreaker(t *testing.T) {
	publisher := &BrokerPublisher{
		Publisher: eventbus.NewNoopPublisher(testLogger()),
		Broker:    config.BrokerRabbitMQ,
		State:     func() string { return "open" },
	}
	_, worker := newTestWorker(t, publisher)

	rec, body := get(t, worker.Handler(), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(observability.HealthStatusDegraded), body["status"])
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	_, worker := newTestWorker(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	assert.Eventually(t, worker.Processor().IsRunning, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.False(t, worker.Processor().IsRunning())
}

func TestWorker_RunFailsWhenHealthAddrTaken(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	_, worker := newTestWorker(t, nil)
	worker.cfg.WorkerHealthAddr = taken.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = worker.Run(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "health server")
	assert.False(t, worker.Processor().IsRunning())
}
