package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// Repository is the append-only transaction ledger. There is no update or
// delete path; records are write-once.
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

// ItemInput is one asset movement to record.
type ItemInput struct {
	TeamID    uuid.UUID
	Direction models.TransactionDirection
	AssetType models.TradeItemType
	PlayerID  *uuid.UUID
	Detail    json.RawMessage
}

// AppendRecord writes one record with its items and returns the immutable id.
func (r *Repository) AppendRecord(ctx context.Context, txType models.TransactionType, season int, createdAt time.Time, items []ItemInput) (uuid.UUID, error) {
	recordID := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_records (id, type, season, created_at)
		VALUES ($1, $2, $3, $4)`,
		recordID, string(txType), season, createdAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to append transaction record: %w", err)
	}

	for _, item := range items {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO transaction_items (id, record_id, team_id, direction, asset_type, player_id, detail)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), recordID, item.TeamID, string(item.Direction), string(item.AssetType),
			sqlutil.ToNullUUID(item.PlayerID),
			pqtype.NullRawMessage{RawMessage: item.Detail, Valid: len(item.Detail) > 0},
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to append transaction item: %w", err)
		}
	}
	return recordID, nil
}

// GetRecord returns a record with its items.
func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	var txType string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, season, created_at FROM transaction_records WHERE id = $1`,
		id,
	).Scan(&rec.ID, &txType, &rec.Season, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}
	rec.Type = models.TransactionType(txType)

	items, err := r.listItems(ctx, `WHERE record_id = $1`, id)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return &rec, nil
}

// ListRecordsByTeam returns all records in which the team appears, newest
// first. This reconstructs "what the team has done" without re-deriving it
// from roster history.
func (r *Repository) ListRecordsByTeam(ctx context.Context, teamID uuid.UUID, season int) ([]models.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT tr.id, tr.type, tr.season, tr.created_at
		FROM transaction_records tr
		JOIN transaction_items ti ON ti.record_id = tr.id
		WHERE ti.team_id = $1 AND tr.season = $2
		ORDER BY tr.created_at DESC`,
		teamID, season,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		var txType string
		if err := rows.Scan(&rec.ID, &txType, &rec.Season, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		rec.Type = models.TransactionType(txType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		items, err := r.listItems(ctx, `WHERE record_id = $1`, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Items = items
	}
	return records, nil
}

func (r *Repository) listItems(ctx context.Context, where string, args ...any) ([]models.TransactionItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, team_id, direction, asset_type, player_id, detail
		FROM transaction_items `+where+` ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction items: %w", err)
	}
	defer rows.Close()

	var items []models.TransactionItem
	for rows.Next() {
		var item models.TransactionItem
		var direction, assetType string
		var playerID uuid.NullUUID
		var detail pqtype.NullRawMessage
		if err := rows.Scan(&item.ID, &item.RecordID, &item.TeamID, &direction, &assetType, &playerID, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan transaction item: %w", err)
		}
		item.Direction = models.TransactionDirection(direction)
		item.AssetType = models.TradeItemType(assetType)
		item.PlayerID = sqlutil.FromNullUUID(playerID)
		if detail.Valid {
			item.Detail = detail.RawMessage
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
