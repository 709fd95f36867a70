// Package domain holds the event envelope shared by every aggregate.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is what the outbox needs to store and route an event. The
// concrete event struct is serialised as the payload.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() uuid.UUID
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the request that caused it. It is stored
// next to the payload, not inside it.
type EventMetadata struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
}

// BaseEvent is embedded by concrete events to satisfy DomainEvent. Its fields
// are unexported so they stay out of the JSON payload.
type BaseEvent struct {
	id      uuid.UUID
	subject uuid.UUID
	kind    string
	key     string
	at      time.Time
	meta    EventMetadata
}

// NewBaseEvent stamps a fresh event id and the current UTC time.
func NewBaseEvent(aggregateID uuid.UUID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		id:      uuid.New(),
		subject: aggregateID,
		kind:    aggregateType,
		key:     routingKey,
		at:      time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() uuid.UUID  { return e.subject }
func (e BaseEvent) AggregateType() string   { return e.kind }
func (e BaseEvent) RoutingKey() string      { return e.key }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.meta }

// SetMetadata attaches correlation data before the event is stored.
func (e *BaseEvent) SetMetadata(m EventMetadata) { e.meta = m }
