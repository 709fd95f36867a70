package eventbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the default topic exchange for part events.
const ExchangeName = "episodes.events"

// ErrNacked is returned when the broker refuses a confirmed publish.
var ErrNacked = errors.New("broker did not acknowledge message")

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// RabbitMQPublisher sends events to a durable topic exchange with the routing
// key as AMQP routing key. The channel runs in confirm mode, so Publish
// returns only once the broker has taken responsibility for the message.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     io.Closer
	channel  amqpChannel
	exchange string
	logger   *slog.Logger
}

// NewRabbitMQPublisher dials url, declares exchange and enables confirms.
func NewRabbitMQPublisher(url, exchange string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := openConfirmChannel(conn, exchangeOrDefault(exchange))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	p := newRabbitMQPublisher(conn, ch, exchange, logger)
	p.logger.Info("RabbitMQ publisher connected", "exchange", p.exchange)
	return p, nil
}

func openConfirmChannel(conn *amqp.Connection, exchange string) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return ch, nil
}

func newRabbitMQPublisher(conn io.Closer, ch amqpChannel, exchange string, logger *slog.Logger) *RabbitMQPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitMQPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchangeOrDefault(exchange),
		logger:   logger.With("broker", "rabbitmq"),
	}
}

func exchangeOrDefault(exchange string) string {
	if exchange == "" {
		return ExchangeName
	}
	return exchange
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		AppId:        "episodes",
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	// nil when the channel is not in confirm mode
	if confirm != nil {
		acked, err := confirm.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("publish %s: %w", routingKey, err)
		}
		if !acked {
			return fmt.Errorf("publish %s: %w", routingKey, ErrNacked)
		}
	}

	p.logger.Debug("message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Close closes the channel, then the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
