package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/episodes/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type positioned struct {
	domain.BaseEvent
	Position int64 `json:"position"`
}

func TestNewBaseEvent(t *testing.T) {
	partID := uuid.New()
	before := time.Now().UTC()

	event := domain.NewBaseEvent(partID, "Part", "part.created")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.NotEqual(t, event.EventID(), domain.NewBaseEvent(partID, "Part", "part.created").EventID())
	assert.Equal(t, partID, event.AggregateID())
	assert.Equal(t, "Part", event.AggregateType())
	assert.Equal(t, "part.created", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestBaseEvent_Metadata(t *testing.T) {
	event := &positioned{BaseEvent: domain.NewBaseEvent(uuid.New(), "Part", "part.moved"), Position: -2}
	assert.Equal(t, domain.EventMetadata{}, event.Metadata())

	md := domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New()}
	event.SetMetadata(md)
	assert.Equal(t, md, event.Metadata())

	var _ domain.DomainEvent = event

	body, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":-2}`, string(body), "envelope fields stay out of the payload")
}
