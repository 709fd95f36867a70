package domain

import (
	"github.com/felixgeelhaar/episodes/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Part"

	RoutingKeyPartCreated = "part.created"
	RoutingKeyPartMoved   = "part.moved"
	RoutingKeyPartDeleted = "part.deleted"
)

// PartCreated is emitted when a part is inserted into an episode.
type PartCreated struct {
	domain.BaseEvent
	PartID    uuid.UUID `json:"part_id"`
	EpisodeID uuid.UUID `json:"episode_id"`
	Position  int64     `json:"position"`
	Shifted   int64     `json:"shifted"`
}

// NewPartCreated creates a PartCreated event.
func NewPartCreated(part *Part, shifted int64) *PartCreated {
	return &PartCreated{
		BaseEvent: domain.NewBaseEvent(part.ID, AggregateType, RoutingKeyPartCreated),
		PartID:    part.ID,
		EpisodeID: part.EpisodeID,
		Position:  part.Position,
		Shifted:   shifted,
	}
}

// PartMoved is emitted when a part changes position.
type PartMoved struct {
	domain.BaseEvent
	PartID    uuid.UUID `json:"part_id"`
	EpisodeID uuid.UUID `json:"episode_id"`
	From      int64     `json:"from"`
	To        int64     `json:"to"`
	Shifted   int64     `json:"shifted"`
}

// NewPartMoved creates a PartMoved event.
func NewPartMoved(partID, episodeID uuid.UUID, from, to, shifted int64) *PartMoved {
	return &PartMoved{
		BaseEvent: domain.NewBaseEvent(partID, AggregateType, RoutingKeyPartMoved),
		PartID:    partID,
		EpisodeID: episodeID,
		From:      from,
		To:        to,
		Shifted:   shifted,
	}
}

// PartDeleted is emitted when a part is removed. Remaining positions are untouched.
type PartDeleted struct {
	domain.BaseEvent
	PartID    uuid.UUID `json:"part_id"`
	EpisodeID uuid.UUID `json:"episode_id"`
	Position  int64     `json:"position"`
}

// NewPartDeleted creates a PartDeleted event.
func NewPartDeleted(part *Part) *PartDeleted {
	return &PartDeleted{
		BaseEvent: domain.NewBaseEvent(part.ID, AggregateType, RoutingKeyPartDeleted),
		PartID:    part.ID,
		EpisodeID: part.EpisodeID,
		Position:  part.Position,
	}
}
