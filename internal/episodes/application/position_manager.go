// Package application runs the part ordering operations against the store.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
	sharedApplication "github.com/felixgeelhaar/episodes/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/episodes/internal/shared/domain"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/episodes/pkg/observability"
	"github.com/google/uuid"
)

const (
	opCreate        = "create"
	opMove          = "move"
	opDelete        = "delete"
	opList          = "list"
	opCreateEpisode = "create_episode"
)

// PositionManager keeps the parts of an episode strictly ordered while they are
// created, moved and deleted by concurrent callers. Every mutation runs in one
// unit of work that locks the episode, shifts the affected range with a single
// statement, writes the target part and records an outbox event.
//
// The manager holds no positions between calls; every listing is re-read.
type PositionManager struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewPositionManager creates a position manager.
func NewPositionManager(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *PositionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &PositionManager{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		logger:  logger,
		metrics: observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics collector.
func (m *PositionManager) WithMetrics(metrics observability.Metrics) *PositionManager {
	m.metrics = metrics
	return m
}

// Create inserts a new part at dest in the episode. Parts at dest or later
// move one slot later first. It returns the episode's ascending listing.
func (m *PositionManager) Create(ctx context.Context, episodeID uuid.UUID, dest int64) (domain.Listing, error) {
	timer := m.startTimer(opCreate)

	var (
		part    *domain.Part
		shifted int64
	)
	err := sharedApplication.WithUnitOfWork(ctx, m.uow, func(txCtx context.Context) error {
		if err := m.repo.LockEpisode(txCtx, episodeID); err != nil {
			return err
		}

		shift := domain.InsertShift(dest)
		n, err := m.repo.ShiftPositions(txCtx, episodeID, shift.Range, shift.Delta)
		if err != nil {
			return err
		}

		part, err = m.repo.InsertPart(txCtx, episodeID, dest)
		if err != nil {
			return err
		}
		shifted = n

		return m.record(txCtx, domain.NewPartCreated(part, n))
	})
	timer.Done(err)
	if err != nil {
		return nil, m.fail(ctx, opCreate, episodeID, err)
	}

	m.shifted(opCreate, shifted)
	m.logger.DebugContext(ctx, "part created",
		observability.OperationKey, opCreate,
		observability.EpisodeIDKey, episodeID,
		observability.PartIDKey, part.ID,
		"to", dest,
		"shifted", shifted,
	)

	return m.list(ctx, opCreate, episodeID, domain.Ascending)
}

// Move places a part at dest, sliding only the parts between its old and new
// slot by one. Moving a part to the position it already holds opens no
// transaction. It returns the episode's ascending listing.
func (m *PositionManager) Move(ctx context.Context, partID uuid.UUID, dest int64) (domain.Listing, error) {
	part, err := m.repo.FindPart(ctx, partID)
	if err != nil {
		return nil, m.fail(ctx, opMove, partID, err)
	}

	if part.Position == dest {
		m.logger.DebugContext(ctx, "part already in place",
			observability.OperationKey, opMove,
			observability.EpisodeIDKey, part.EpisodeID,
			observability.PartIDKey, partID,
			"to", dest,
		)
		return m.list(ctx, opMove, part.EpisodeID, domain.Ascending)
	}

	timer := m.startTimer(opMove)

	var from, shifted int64
	err = sharedApplication.WithUnitOfWork(ctx, m.uow, func(txCtx context.Context) error {
		if err := m.repo.LockEpisode(txCtx, part.EpisodeID); err != nil {
			return err
		}

		// Another caller may have shifted the part before the lock was taken.
		current, err := m.repo.FindPart(txCtx, partID)
		if err != nil {
			return err
		}
		from = current.Position

		shift, ok := domain.MoveShift(current.Position, dest)
		if !ok {
			return nil
		}

		shifted, err = m.repo.ShiftPositions(txCtx, current.EpisodeID, shift.Range, shift.Delta)
		if err != nil {
			return err
		}

		if err := m.repo.UpdatePartPosition(txCtx, partID, dest); err != nil {
			return err
		}

		return m.record(txCtx, domain.NewPartMoved(partID, current.EpisodeID, from, dest, shifted))
	})
	timer.Done(err)
	if err != nil {
		return nil, m.fail(ctx, opMove, partID, err)
	}

	m.shifted(opMove, shifted)
	m.logger.DebugContext(ctx, "part moved",
		observability.OperationKey, opMove,
		observability.EpisodeIDKey, part.EpisodeID,
		observability.PartIDKey, partID,
		"from", from,
		"to", dest,
		"shifted", shifted,
	)

	return m.list(ctx, opMove, part.EpisodeID, domain.Ascending)
}

// Delete removes a part. The remaining parts keep their positions, so the
// freed slot stays empty. It returns the episode's ascending listing.
func (m *PositionManager) Delete(ctx context.Context, partID uuid.UUID) (domain.Listing, error) {
	timer := m.startTimer(opDelete)

	var deleted *domain.Part
	err := sharedApplication.WithUnitOfWork(ctx, m.uow, func(txCtx context.Context) error {
		part, err := m.repo.FindPart(txCtx, partID)
		if err != nil {
			return err
		}

		if err := m.repo.LockEpisode(txCtx, part.EpisodeID); err != nil {
			return err
		}

		// Re-read under the lock so the event carries the final position.
		deleted, err = m.repo.FindPart(txCtx, partID)
		if err != nil {
			return err
		}

		if err := m.repo.DeletePart(txCtx, partID); err != nil {
			return err
		}

		return m.record(txCtx, domain.NewPartDeleted(deleted))
	})
	timer.Done(err)
	if err != nil {
		return nil, m.fail(ctx, opDelete, partID, err)
	}

	m.logger.DebugContext(ctx, "part deleted",
		observability.OperationKey, opDelete,
		observability.EpisodeIDKey, deleted.EpisodeID,
		observability.PartIDKey, partID,
		"from", deleted.Position,
	)

	return m.list(ctx, opDelete, deleted.EpisodeID, domain.Ascending)
}

// List returns every part of the episode sorted by position in the given
// order. An empty order lists ascending.
func (m *PositionManager) List(ctx context.Context, episodeID uuid.UUID, order domain.SortOrder) (domain.Listing, error) {
	if order == "" {
		order = domain.Ascending
	}
	if !order.IsValid() {
		return nil, m.fail(ctx, opList, episodeID, fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidInput, order))
	}
	return m.list(ctx, opList, episodeID, order)
}

// CreateEpisode stores a new, empty episode.
func (m *PositionManager) CreateEpisode(ctx context.Context, title string) (*domain.Episode, error) {
	episode := domain.NewEpisode(title)
	if err := m.repo.CreateEpisode(ctx, episode); err != nil {
		return nil, m.fail(ctx, opCreateEpisode, episode.ID, err)
	}

	m.logger.InfoContext(ctx, "episode created",
		observability.OperationKey, opCreateEpisode,
		observability.EpisodeIDKey, episode.ID,
	)
	return episode, nil
}

// list reads the listing on behalf of op so failures name the caller's operation.
func (m *PositionManager) list(ctx context.Context, op string, episodeID uuid.UUID, order domain.SortOrder) (domain.Listing, error) {
	if _, err := m.repo.FindEpisode(ctx, episodeID); err != nil {
		return nil, m.fail(ctx, op, episodeID, err)
	}

	parts, err := m.repo.ListParts(ctx, episodeID, order)
	if err != nil {
		return nil, m.fail(ctx, op, episodeID, err)
	}
	return domain.NewListing(parts), nil
}

// record writes event to the outbox inside the caller's transaction.
func (m *PositionManager) record(txCtx context.Context, event sharedDomain.DomainEvent) error {
	metadata := sharedApplication.NewEventMetadata(observability.CorrelationUUID(txCtx))
	sharedApplication.ApplyEventMetadata([]sharedDomain.DomainEvent{event}, metadata)

	msg, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return m.outbox.Save(txCtx, msg)
}

// fail classifies err into one of the domain error kinds and names the
// operation and id it happened for.
func (m *PositionManager) fail(ctx context.Context, op string, id uuid.UUID, err error) error {
	kind := err
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidInput) {
		kind = fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}

	m.logger.WarnContext(ctx, "part operation failed",
		observability.OperationKey, op,
		"id", id,
		observability.ErrorKey, err,
		"retryable", database.IsRetryable(err),
	)

	return &domain.OperationError{Op: op, ID: id, Err: kind}
}

func (m *PositionManager) startTimer(op string) *observability.Timer {
	return observability.StartTimer(m.metrics, op)
}

func (m *PositionManager) shifted(op string, n int64) {
	if n > 0 {
		m.metrics.Counter(observability.MetricPartsShifted, n, observability.T(observability.OperationKey, op))
	}
}
