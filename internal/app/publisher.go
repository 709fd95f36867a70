package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/episodes/pkg/config"
)

// BrokerPublisher is a publisher together with the state of the breaker
// guarding it. State is nil when no broker is configured.
type BrokerPublisher struct {
	eventbus.Publisher
	Broker string
	State  func() string
}

// NewEventPublisher connects to the configured broker and wraps it in a
// circuit breaker. Outside production an unreachable broker degrades to the
// noop publisher so local runs keep working.
func NewEventPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*BrokerPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		publisher eventbus.Publisher
		err       error
	)
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		publisher, err = eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitExchange, logger)
	case config.BrokerRedis:
		publisher, err = eventbus.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannelPfx, logger)
	case config.BrokerNone, "":
		return &BrokerPublisher{Publisher: eventbus.NewNoopPublisher(logger), Broker: config.BrokerNone}, nil
	default:
		return nil, fmt.Errorf("unsupported event broker: %s", cfg.EventBroker)
	}

	if err != nil {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("failed to connect to %s: %w", cfg.EventBroker, err)
		}
		logger.Warn("event broker not available, using noop publisher",
			"broker", cfg.EventBroker,
			"error", err,
		)
		return &BrokerPublisher{Publisher: eventbus.NewNoopPublisher(logger), Broker: config.BrokerNone}, nil
	}

	breakerCfg := eventbus.DefaultBreakerConfig(cfg.EventBroker)
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	}
	if cfg.BreakerOpenTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerOpenTimeout
	}
	breaker := eventbus.NewBreakerPublisher(publisher, breakerCfg, logger)

	return &BrokerPublisher{
		Publisher: breaker,
		Broker:    cfg.EventBroker,
		State:     breaker.State,
	}, nil
}
