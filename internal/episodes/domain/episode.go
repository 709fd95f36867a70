// Package domain holds the episode and part model and the position arithmetic
// that keeps parts ordered within an episode.
package domain

import (
	"github.com/google/uuid"
)

// Episode owns an ordered collection of parts.
type Episode struct {
	ID    uuid.UUID
	Title string
}

// NewEpisode creates an episode with a fresh identifier.
func NewEpisode(title string) *Episode {
	return &Episode{ID: uuid.New(), Title: title}
}

// Part is a single entry of an episode. Position is unique within the
// episode; gaps between positions are allowed and never closed.
type Part struct {
	ID        uuid.UUID
	EpisodeID uuid.UUID
	Position  int64
}
