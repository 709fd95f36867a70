package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/episodes/internal/shared/domain"
	"github.com/google/uuid"
)

// Message is one row of the outbox table: a serialised domain event plus its
// delivery bookkeeping.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	RoutingKey    string
	Payload       json.RawMessage
	Metadata      json.RawMessage
	CreatedAt     time.Time

	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serialises event and its metadata into an unsaved Message.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.RoutingKey(), err)
	}
	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("encode %s metadata: %w", event.RoutingKey(), err)
	}

	key := event.RoutingKey()
	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     key,
		RoutingKey:    key,
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

func (m *Message) IsPublished() bool { return m.PublishedAt != nil }

func (m *Message) IsDead() bool { return m.DeadLetteredAt != nil }

// Exhausted reports whether a failure of the current attempt uses up the
// delivery budget of maxAttempts. A non-positive budget is always exhausted.
func (m *Message) Exhausted(maxAttempts int) bool {
	return m.RetryCount+1 >= maxAttempts
}

// CorrelationID extracts the correlation id from the stored metadata, or
// uuid.Nil when there is none.
func (m *Message) CorrelationID() uuid.UUID {
	if len(m.Metadata) == 0 {
		return uuid.Nil
	}
	var md domain.EventMetadata
	if err := json.Unmarshal(m.Metadata, &md); err != nil {
		return uuid.Nil
	}
	return md.CorrelationID
}
