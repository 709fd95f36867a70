package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig tunes the relay loop.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is the delivery budget per message, first attempt included.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// Stats is a point-in-time view of relay activity. Counters are cumulative
// since the processor was created.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// Processor relays committed outbox messages to a broker. Delivery is at least
// once: a message published but not marked is sent again on the next poll.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	cfg       ProcessorConfig
	logger    *slog.Logger
	now       func() time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu    sync.Mutex
	stats Stats
}

func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "outbox"),
		now:       time.Now,
	}
}

// Start launches the poll loop. Calling Start on a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.cfg.PollInterval,
		"batch_size", p.cfg.BatchSize,
		"max_retries", p.cfg.MaxRetries,
	)
	return nil
}

// Stop cancels the poll loop and waits for the in-flight batch to finish.
func (p *Processor) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil
	p.logger.Info("outbox processor stopped")
}

func (p *Processor) IsRunning() bool {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	return p.cancel != nil
}

func (p *Processor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = DefaultProcessorConfig().PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("outbox poll failed", "error", err)
			}
		}
	}
}

// ProcessOnce fetches one batch of due messages and tries to deliver each of
// them. Per-message failures are recorded on the message; only a failure to
// fetch the batch is returned.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	batch, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		p.record(func(s *Stats) { s.setError(err, p.now()) })
		return err
	}
	p.observe(batch)

	for _, msg := range batch {
		if ctx.Err() != nil {
			return nil
		}
		p.deliver(ctx, msg)
	}
	return nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message) {
	log := p.logger.With(
		"message_id", msg.ID,
		"event_id", msg.EventID,
		"routing_key", msg.RoutingKey,
		"correlation_id", msg.CorrelationID(),
	)

	if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
		p.reject(ctx, log, msg, err)
		return
	}

	if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
		log.Error("published message could not be marked", "error", err)
		return
	}
	p.record(func(s *Stats) { s.PublishedCount++ })
}

func (p *Processor) reject(ctx context.Context, log *slog.Logger, msg *Message, cause error) {
	log = log.With("attempt", msg.RetryCount+1, "error", cause)

	if msg.Exhausted(p.cfg.MaxRetries) {
		log.Warn("dead-lettering message")
		p.record(func(s *Stats) {
			s.DeadCount++
			s.setError(cause, p.now())
		})
		if err := p.repo.MarkDead(ctx, msg.ID, cause.Error()); err != nil {
			log.Error("message could not be dead-lettered", "mark_error", err)
		}
		return
	}

	retryAt := p.now().Add(p.retryBackoff(msg.RetryCount + 1))
	log.Warn("publish failed, retry scheduled", "retry_at", retryAt)
	p.record(func(s *Stats) {
		s.FailedCount++
		s.setError(cause, p.now())
	})
	if err := p.repo.MarkFailed(ctx, msg.ID, cause.Error(), retryAt); err != nil {
		log.Error("retry could not be scheduled", "mark_error", err)
	}
}

// retryBackoff is RetryBackoffBase * 2^(attempt-1), capped at RetryBackoffMax.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base, ceiling := p.cfg.RetryBackoffBase, p.cfg.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}

	delay := base
	for n := 1; n < attempt && delay < ceiling; n++ {
		delay *= 2
	}
	return min(delay, ceiling)
}

// observe records the poll time and how far behind the oldest due message is.
func (p *Processor) observe(batch []*Message) {
	now := p.now()
	var oldest *time.Time
	for _, msg := range batch {
		if oldest == nil || msg.CreatedAt.Before(*oldest) {
			created := msg.CreatedAt
			oldest = &created
		}
	}

	p.record(func(s *Stats) {
		s.LastProcessedAt = &now
		s.OldestMessageAt = oldest
		s.LagSeconds = 0
		if oldest != nil {
			s.LagSeconds = now.Sub(*oldest).Seconds()
		}
	})
}

func (p *Processor) record(update func(*Stats)) {
	p.mu.Lock()
	update(&p.stats)
	p.mu.Unlock()
}

// GetStats returns a copy of the current statistics.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()

	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.IsRunning = running
	return s
}

func (s *Stats) setError(err error, at time.Time) {
	s.LastError = err.Error()
	s.LastErrorAt = &at
}
