package persistence

import (
	"context"
	"fmt"
	"math"

	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLRepository implements domain.Repository for PostgreSQL and SQLite.
// Queries use $N placeholders; the SQLite connection rewrites them.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a new episode repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// CreateEpisode stores a new episode.
func (r *SQLRepository) CreateEpisode(ctx context.Context, episode *domain.Episode) error {
	query := `INSERT INTO episodes (id, title) VALUES ($1, $2)`

	if _, err := r.exec(ctx).Exec(ctx, query, episode.ID, episode.Title); err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// FindEpisode retrieves an episode by id.
func (r *SQLRepository) FindEpisode(ctx context.Context, id uuid.UUID) (*domain.Episode, error) {
	query := `SELECT id, title FROM episodes WHERE id = $1`

	var episode domain.Episode
	err := r.exec(ctx).QueryRow(ctx, query, id).Scan(&episode.ID, &episode.Title)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrEpisodeNotFound
		}
		return nil, fmt.Errorf("find episode: %w", err)
	}
	return &episode, nil
}

// LockEpisode takes the episode row lock for the rest of the transaction.
// On SQLite the single write connection already serialises transactions, so
// the lookup only checks existence.
func (r *SQLRepository) LockEpisode(ctx context.Context, id uuid.UUID) error {
	query := `SELECT id FROM episodes WHERE id = $1`
	if r.conn.Driver() == database.DriverPostgres {
		query += ` FOR UPDATE`
	}

	var locked uuid.UUID
	err := r.exec(ctx).QueryRow(ctx, query, id).Scan(&locked)
	if err != nil {
		if database.IsNoRows(err) {
			return domain.ErrEpisodeNotFound
		}
		return fmt.Errorf("lock episode: %w", err)
	}
	return nil
}

// FindPart retrieves a part by id.
func (r *SQLRepository) FindPart(ctx context.Context, id uuid.UUID) (*domain.Part, error) {
	query := `SELECT id, episode_id, position FROM parts WHERE id = $1`

	var part domain.Part
	err := r.exec(ctx).QueryRow(ctx, query, id).Scan(&part.ID, &part.EpisodeID, &part.Position)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrPartNotFound
		}
		return nil, fmt.Errorf("find part: %w", err)
	}
	return &part, nil
}

// ListParts returns the parts of an episode sorted by position. Ties, which
// the manager never produces, are broken by id so both directions stay exact
// reverses of each other.
func (r *SQLRepository) ListParts(ctx context.Context, episodeID uuid.UUID, order domain.SortOrder) ([]*domain.Part, error) {
	direction := "ASC"
	if order == domain.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, episode_id, position
		FROM parts
		WHERE episode_id = $1
		ORDER BY position %[1]s, id %[1]s
	`, direction)

	rows, err := r.exec(ctx).Query(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var parts []*domain.Part
	for rows.Next() {
		var part domain.Part
		if err := rows.Scan(&part.ID, &part.EpisodeID, &part.Position); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, &part)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

// ShiftPositions moves every part of the episode inside pr by delta in one
// statement. It fails with ErrPositionOverflow, before anything is written,
// when a part would leave the int64 range.
func (r *SQLRepository) ShiftPositions(ctx context.Context, episodeID uuid.UUID, pr domain.PositionRange, delta int64) (int64, error) {
	if err := r.checkShiftBounds(ctx, episodeID, pr, delta); err != nil {
		return 0, err
	}

	query := `
		UPDATE parts
		SET position = position + $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE episode_id = $1
		  AND position BETWEEN $2 AND $3
	`

	result, err := r.exec(ctx).Exec(ctx, query, episodeID, pr.From, pr.To, delta)
	if err != nil {
		return 0, fmt.Errorf("shift positions %s by %d: %w", pr, delta, err)
	}
	return result.RowsAffected()
}

// checkShiftBounds looks for a part in pr that position + delta would overflow.
// SQLite turns such a sum into a REAL instead of failing.
func (r *SQLRepository) checkShiftBounds(ctx context.Context, episodeID uuid.UUID, pr domain.PositionRange, delta int64) error {
	var query string
	var limit int64
	switch {
	case delta > 0:
		query = `SELECT COUNT(*) FROM parts WHERE episode_id = $1 AND position BETWEEN $2 AND $3 AND position > $4`
		limit = math.MaxInt64 - delta
	case delta < 0:
		query = `SELECT COUNT(*) FROM parts WHERE episode_id = $1 AND position BETWEEN $2 AND $3 AND position < $4`
		limit = math.MinInt64 - delta
	default:
		return nil
	}

	var n int64
	if err := r.exec(ctx).QueryRow(ctx, query, episodeID, pr.From, pr.To, limit).Scan(&n); err != nil {
		return fmt.Errorf("check shift bounds %s: %w", pr, err)
	}
	if n > 0 {
		return fmt.Errorf("shift %s by %d: %w", pr, delta, domain.ErrPositionOverflow)
	}
	return nil
}

// InsertPart creates a part at position.
func (r *SQLRepository) InsertPart(ctx context.Context, episodeID uuid.UUID, position int64) (*domain.Part, error) {
	part := &domain.Part{
		ID:        uuid.New(),
		EpisodeID: episodeID,
		Position:  position,
	}

	query := `INSERT INTO parts (id, episode_id, position) VALUES ($1, $2, $3)`
	if _, err := r.exec(ctx).Exec(ctx, query, part.ID, part.EpisodeID, part.Position); err != nil {
		return nil, fmt.Errorf("insert part: %w", err)
	}
	return part, nil
}

// UpdatePartPosition sets the position of a part.
func (r *SQLRepository) UpdatePartPosition(ctx context.Context, partID uuid.UUID, position int64) error {
	query := `
		UPDATE parts
		SET position = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.exec(ctx).Exec(ctx, query, partID, position)
	if err != nil {
		return fmt.Errorf("update part position: %w", err)
	}
	return requireAffected(result, domain.ErrPartNotFound)
}

// DeletePart removes a part without touching its neighbours.
func (r *SQLRepository) DeletePart(ctx context.Context, partID uuid.UUID) error {
	query := `DELETE FROM parts WHERE id = $1`

	result, err := r.exec(ctx).Exec(ctx, query, partID)
	if err != nil {
		return fmt.Errorf("delete part: %w", err)
	}
	return requireAffected(result, domain.ErrPartNotFound)
}

func requireAffected(result database.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
