package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/sqlutil"
)

// Repository reads and writes outbox rows.
type Repository struct {
	db sqlutil.DBTX
}

func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// InsertEvent appends an unsent outbox row. Call inside the domain
// transaction so the event commits atomically with the mutation.
func (r *Repository) InsertEvent(ctx context.Context, aggregateID uuid.UUID, eventType string, payload json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), aggregateID, eventType, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchUnsent returns up to limit unsent events, oldest first, locking them
// against concurrent workers.
func (r *Repository) FetchUnsent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at, sent_at
		FROM outbox_events
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var sentAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		ev.SentAt = sqlutil.FromSqlTime(sentAt)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// MarkSent stamps an event as published.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events SET sent_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}
