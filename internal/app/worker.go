package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/episodes/pkg/config"
	"github.com/felixgeelhaar/episodes/pkg/observability"
)

// Worker relays outbox messages to the event broker and exposes its health.
type Worker struct {
	cfg       *config.Config
	logger    *slog.Logger
	conn      database.Connection
	repo      outbox.Repository
	processor *outbox.Processor
	health    *observability.HealthRegistry
	metrics   *observability.InMemoryMetrics

	reported outbox.Stats
}

// NewWorker wires the outbox processor and health checks.
func NewWorker(
	cfg *config.Config,
	conn database.Connection,
	repo outbox.Repository,
	publisher *BrokerPublisher,
	metrics *observability.InMemoryMetrics,
	logger *slog.Logger,
) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewInMemoryMetrics()
	}

	processorConfig := outbox.DefaultProcessorConfig()
	if cfg.OutboxPollInterval > 0 {
		processorConfig.PollInterval = cfg.OutboxPollInterval
	}
	if cfg.OutboxBatchSize > 0 {
		processorConfig.BatchSize = cfg.OutboxBatchSize
	}
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	if cfg.OutboxRetryBackoffBase > 0 {
		processorConfig.RetryBackoffBase = cfg.OutboxRetryBackoffBase
	}
	if cfg.OutboxRetryBackoffMax > 0 {
		processorConfig.RetryBackoffMax = cfg.OutboxRetryBackoffMax
	}

	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	health.Register("outbox", observability.BacklogHealthChecker(repo.CountPending, cfg.OutboxMaxPending))
	if publisher.State != nil {
		health.Register(publisher.Broker, observability.BreakerHealthChecker(publisher.Broker, publisher.State))
	}

	return &Worker{
		cfg:       cfg,
		logger:    logger,
		conn:      conn,
		repo:      repo,
		processor: outbox.NewProcessor(repo, publisher, processorConfig, logger),
		health:    health,
		metrics:   metrics,
	}
}

// Processor returns the underlying outbox processor.
func (w *Worker) Processor() *outbox.Processor {
	return w.processor
}

// Run starts the processor, the health server and the periodic jobs, and
// blocks until ctx is done or the health server fails.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting outbox processor",
		"poll_interval", w.cfg.OutboxPollInterval,
		"batch_size", w.cfg.OutboxBatchSize,
		"max_retries", w.cfg.OutboxMaxRetries,
	)
	if err := w.processor.Start(ctx); err != nil {
		return err
	}
	defer w.processor.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if w.cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              w.cfg.WorkerHealthAddr,
			Handler:           w.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			w.logger.Info("health server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		w.schedule(gctx)
		return nil
	})

	err := g.Wait()
	w.logger.Info("worker stopped")
	return err
}

// schedule runs the stats and cleanup jobs until ctx is done.
func (w *Worker) schedule(ctx context.Context) {
	statsTicker := time.NewTicker(orDefault(w.cfg.OutboxStatsInterval, 30*time.Second))
	defer statsTicker.Stop()
	cleanupTicker := time.NewTicker(orDefault(w.cfg.OutboxCleanupInterval, 24*time.Hour))
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-statsTicker.C:
			w.ReportStats(ctx)
		case <-cleanupTicker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error("outbox cleanup failed", "error", err)
			}
		}
	}
}

// Cleanup deletes published messages past the retention period.
func (w *Worker) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := w.repo.DeleteOld(ctx, w.cfg.OutboxRetentionDays)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		w.logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", w.cfg.OutboxRetentionDays)
	}
	return deleted, nil
}

// ReportStats logs processor statistics and records them as metrics.
// Counters receive the increase since the previous report.
func (w *Worker) ReportStats(ctx context.Context) {
	stats := w.processor.GetStats()

	w.metrics.Counter(observability.MetricOutboxPublished, int64(stats.PublishedCount-w.reported.PublishedCount))
	w.metrics.Counter(observability.MetricOutboxFailed, int64(stats.FailedCount-w.reported.FailedCount))
	w.metrics.Counter(observability.MetricOutboxDead, int64(stats.DeadCount-w.reported.DeadCount))
	w.metrics.Gauge(observability.MetricOutboxLag, stats.LagSeconds)
	w.reported = stats

	pending, err := w.repo.CountPending(ctx)
	if err != nil {
		w.logger.Warn("failed to count pending outbox messages", "error", err)
	} else {
		w.metrics.Gauge(observability.MetricOutboxPending, float64(pending))
	}

	w.logger.Info("outbox stats",
		"running", stats.IsRunning,
		"published", stats.PublishedCount,
		"failed", stats.FailedCount,
		"dead", stats.DeadCount,
		"pending", pending,
		"lag_seconds", stats.LagSeconds,
		"oldest_message_at", stats.OldestMessageAt,
		"last_processed_at", stats.LastProcessedAt,
		"last_error_at", stats.LastErrorAt,
		"last_error", stats.LastError,
	)
}

// Handler serves /healthz, /readyz and /metrics.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		stats := w.processor.GetStats()
		writeJSON(rw, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})

	mux.HandleFunc("/readyz", func(rw http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		health := w.health.GetOverallHealth(checkCtx)
		status := http.StatusOK
		if health.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(rw, status, health)
	})

	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		counters, gauges := w.metrics.Snapshot()
		writeJSON(rw, http.StatusOK, map[string]any{
			"counters": counters,
			"gauges":   gauges,
		})
	})

	return mux
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func writeJSON(rw http.ResponseWriter, status int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}
