package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix namespaces the pub/sub channels events are sent on.
// Channels are named {prefix}:{routing_key}, e.g. episodes:events:part.moved.
const DefaultChannelPrefix = "episodes:events"

type redisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes events with Redis PUBLISH.
type RedisPublisher struct {
	client redisClient
	prefix string
	logger *slog.Logger
}

// NewRedisPublisher connects to the Redis server at url.
func NewRedisPublisher(ctx context.Context, url, prefix string, logger *slog.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	p := newRedisPublisher(client, prefix, logger)
	p.logger.Info("Redis publisher connected", "addr", opts.Addr, "prefix", p.prefix)
	return p, nil
}

func newRedisPublisher(client redisClient, prefix string, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisPublisher{client: client, prefix: prefix, logger: logger}
}

// Channel returns the channel a routing key is published on.
func (p *RedisPublisher) Channel(routingKey string) string {
	return p.prefix + ":" + routingKey
}

// Publish sends the payload to the routing key's channel. Having no
// subscribers is not an error.
func (p *RedisPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	channel := p.Channel(routingKey)
	receivers, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.Debug("message published",
		"broker", "redis",
		"channel", channel,
		"receivers", receivers,
		"size", len(payload),
	)
	return nil
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
