package trade

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// Repository stores trade proposals with their tagged-union items. Items and
// declared drops are immutable once written; only status and the target
// team's drop list move after creation.
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

type CreateTradeRequest struct {
	Season          int
	ProposingTeamID uuid.UUID
	TargetTeamID    uuid.UUID
	Items           []models.TradeItem
	ProposingDrops  []uuid.UUID
	CreatedAt       time.Time
}

// CreateTrade inserts a proposal and its items.
func (r *Repository) CreateTrade(ctx context.Context, req CreateTradeRequest) (*models.TradeProposal, error) {
	tradeID := uuid.New()
	drops, err := encodeDrops(req.ProposingDrops)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO trade_proposals
			(id, season, proposing_team_id, target_team_id, status, proposing_drops, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		tradeID, req.Season, req.ProposingTeamID, req.TargetTeamID,
		string(models.TradeStatusProposed), drops, req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade proposal: %w", err)
	}

	for i, item := range req.Items {
		payload, err := encodeItem(item)
		if err != nil {
			return nil, err
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO trade_items (id, trade_id, position, item_type, from_team_id, to_team_id, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), tradeID, i, string(item.ItemType()), item.FromTeam(), item.ToTeam(), payload,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trade item: %w", err)
		}
	}

	return r.GetTrade(ctx, tradeID)
}

// GetTrade returns a proposal with its items in proposal order.
func (r *Repository) GetTrade(ctx context.Context, id uuid.UUID) (*models.TradeProposal, error) {
	var trade models.TradeProposal
	var status string
	var proposingDrops, targetDrops pqtype.NullRawMessage
	err := r.db.QueryRowContext(ctx, `
		SELECT id, season, proposing_team_id, target_team_id, status,
			proposing_drops, target_drops, created_at, updated_at
		FROM trade_proposals WHERE id = $1`, id,
	).Scan(
		&trade.ID, &trade.Season, &trade.ProposingTeamID, &trade.TargetTeamID,
		&status, &proposingDrops, &targetDrops, &trade.CreatedAt, &trade.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade proposal: %w", err)
	}
	trade.Status = models.TradeStatus(status)
	if trade.ProposingDrops, err = decodeDrops(proposingDrops); err != nil {
		return nil, err
	}
	if trade.TargetDrops, err = decodeDrops(targetDrops); err != nil {
		return nil, err
	}

	if trade.Items, err = r.listItems(ctx, id); err != nil {
		return nil, err
	}
	return &trade, nil
}

// ListByTeam returns every proposal where the team is a participant, newest
// first, optionally filtered to one status.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID, season int, status *models.TradeStatus) ([]models.TradeProposal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM trade_proposals
		WHERE season = $1 AND (proposing_team_id = $2 OR target_team_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC`,
		season, teamID, statusArg(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list trade proposals: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trade id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trades := make([]models.TradeProposal, 0, len(ids))
	for _, id := range ids {
		trade, err := r.GetTrade(ctx, id)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *trade)
	}
	return trades, nil
}

// TransitionStatus moves a trade from one status to another. The guard makes
// concurrent actors lose cleanly: zero rows means the trade already moved.
func (r *Repository) TransitionStatus(ctx context.Context, tradeID uuid.UUID, from, to models.TradeStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trade_proposals SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		tradeID, string(from), string(to), at,
	)
	if err != nil {
		return fmt.Errorf("failed to transition trade status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to transition trade status: %w", err)
	}
	if affected == 0 {
		return r.staleStateError(ctx, tradeID, from)
	}
	return nil
}

// SetTargetDrops records the accepting team's declared drops.
func (r *Repository) SetTargetDrops(ctx context.Context, tradeID uuid.UUID, drops []uuid.UUID, at time.Time) error {
	encoded, err := encodeDrops(drops)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE trade_proposals SET target_drops = $2, updated_at = $3
		WHERE id = $1`,
		tradeID, encoded, at,
	)
	if err != nil {
		return fmt.Errorf("failed to set target drops: %w", err)
	}
	return nil
}

func (r *Repository) listItems(ctx context.Context, tradeID uuid.UUID) ([]models.TradeItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_type, payload FROM trade_items
		WHERE trade_id = $1 ORDER BY position`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade items: %w", err)
	}
	defer rows.Close()

	var items []models.TradeItem
	for rows.Next() {
		var itemType string
		var payload json.RawMessage
		if err := rows.Scan(&itemType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan trade item: %w", err)
		}
		item, err := decodeItem(models.TradeItemType(itemType), payload)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// staleStateError reloads the current status so callers see what the trade
// actually is, not just what it is not.
func (r *Repository) staleStateError(ctx context.Context, tradeID uuid.UUID, expected models.TradeStatus) error {
	trade, err := r.GetTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	return &StaleTradeStateError{TradeID: tradeID, Expected: expected, Actual: trade.Status}
}

func encodeDrops(drops []uuid.UUID) (pqtype.NullRawMessage, error) {
	if len(drops) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(drops)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to encode drop list: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func decodeDrops(raw pqtype.NullRawMessage) ([]uuid.UUID, error) {
	if !raw.Valid {
		return nil, nil
	}
	var drops []uuid.UUID
	if err := json.Unmarshal(raw.RawMessage, &drops); err != nil {
		return nil, fmt.Errorf("failed to decode drop list: %w", err)
	}
	return drops, nil
}

func statusArg(status *models.TradeStatus) sql.NullString {
	if status == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*status), Valid: true}
}
