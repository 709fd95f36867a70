package observability

import (
	"context"

	"github.com/google/uuid"
)

type correlationIDKey struct{}

// Attribute keys shared by log lines and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	EpisodeIDKey     = "episode_id"
	PartIDKey        = "part_id"
	OperationKey     = "operation"
	OutcomeKey       = "outcome"
	ErrorKey         = "error"
)

// WithCorrelationID returns a context carrying id. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation ID carried by ctx, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// CorrelationUUID returns the correlation ID as a UUID, or uuid.Nil when it
// is absent or not a UUID.
func CorrelationUUID(ctx context.Context) uuid.UUID {
	id, err := uuid.Parse(CorrelationIDFromContext(ctx))
	if err != nil {
		return uuid.Nil
	}
	return id
}
