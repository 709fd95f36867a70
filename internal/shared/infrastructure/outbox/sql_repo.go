package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/episodes/internal/shared/infrastructure/database"
)

// SQLRepository implements Repository on any database.Connection.
// Timestamps are stored as Unix milliseconds so both drivers share one schema shape.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates a new outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

const selectMessageColumns = `
	SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	       payload, metadata, created_at, published_at, next_retry_at, retry_count,
	       last_error, dead_lettered_at, dead_letter_reason
	FROM outbox
`

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, event_type, routing_key,
			payload, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var metadata any
	if len(msg.Metadata) > 0 {
		metadata = string(msg.Metadata)
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	return exec.QueryRow(ctx, query,
		msg.EventID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		metadata,
		msg.CreatedAt.UnixMilli(),
	).Scan(&msg.ID)
}

// GetUnpublished retrieves messages due for publishing ordered by creation time.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := selectMessageColumns + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY created_at, id
		LIMIT $2
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, r.now().UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	query := `UPDATE outbox SET published_at = $2, dead_lettered_at = NULL WHERE id = $1`
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, id, r.now().UnixMilli())
	return err
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = $2,
			next_retry_at = $3
		WHERE id = $1
	`
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, id, errMsg, nextRetryAt.UnixMilli())
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			dead_lettered_at = $2,
			dead_letter_reason = $3
		WHERE id = $1
	`
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, id, r.now().UnixMilli(), reason)
	return err
}

// CountPending returns the number of messages neither published nor dead.
func (r *SQLRepository) CountPending(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL AND dead_lettered_at IS NULL`

	var count int64
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query).Scan(&count)
	return count, err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	query := `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`

	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessages(rows database.Rows) ([]*Message, error) {
	var messages []*Message

	for rows.Next() {
		var (
			msg            Message
			payload        string
			metadata       *string
			createdAt      int64
			publishedAt    *int64
			nextRetryAt    *int64
			deadLetteredAt *int64
		)
		err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.RoutingKey,
			&payload,
			&metadata,
			&createdAt,
			&publishedAt,
			&nextRetryAt,
			&msg.RetryCount,
			&msg.LastError,
			&deadLetteredAt,
			&msg.DeadLetterReason,
		)
		if err != nil {
			return nil, err
		}

		msg.Payload = []byte(payload)
		if metadata != nil {
			msg.Metadata = []byte(*metadata)
		}
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		msg.PublishedAt = millisToTime(publishedAt)
		msg.NextRetryAt = millisToTime(nextRetryAt)
		msg.DeadLetteredAt = millisToTime(deadLetteredAt)

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func millisToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
