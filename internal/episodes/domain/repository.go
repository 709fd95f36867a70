package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the record store for episodes and parts. Mutating methods run
// inside the transaction carried by ctx when there is one.
type Repository interface {
	// CreateEpisode stores a new episode.
	CreateEpisode(ctx context.Context, episode *Episode) error

	// FindEpisode returns ErrEpisodeNotFound when the episode does not exist.
	FindEpisode(ctx context.Context, id uuid.UUID) (*Episode, error)

	// LockEpisode checks the episode exists and holds its row lock until the
	// surrounding transaction ends. Returns ErrEpisodeNotFound when absent.
	LockEpisode(ctx context.Context, id uuid.UUID) error

	// FindPart returns ErrPartNotFound when the part does not exist.
	FindPart(ctx context.Context, id uuid.UUID) (*Part, error)

	// ListParts returns the parts of an episode sorted by position, ties by id.
	ListParts(ctx context.Context, episodeID uuid.UUID, order SortOrder) ([]*Part, error)

	// ShiftPositions adds delta to the position of every part of the episode
	// within r using a single statement and returns the number of parts moved.
	ShiftPositions(ctx context.Context, episodeID uuid.UUID, r PositionRange, delta int64) (int64, error)

	// InsertPart creates a part at position and assigns its id.
	InsertPart(ctx context.Context, episodeID uuid.UUID, position int64) (*Part, error)

	// UpdatePartPosition sets the position of a part.
	UpdatePartPosition(ctx context.Context, partID uuid.UUID, position int64) error

	// DeletePart removes a part. Returns ErrPartNotFound when absent.
	DeletePart(ctx context.Context, partID uuid.UUID) error
}
