package keeper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// ErrAllotmentNotFound is returned when a team has no keeper allotment row
// for a season.
var ErrAllotmentNotFound = errors.New("keeper slot allotment not found")

// Repository stores per-season keeper slot allotments. AdditionalSlots is
// mutated only by trade execution.
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

// GetAllotment returns a team's keeper slot allotment for a season.
func (r *Repository) GetAllotment(ctx context.Context, teamID uuid.UUID, season int) (*models.KeeperSlotAllotment, error) {
	var a models.KeeperSlotAllotment
	err := r.db.QueryRowContext(ctx, `
		SELECT team_id, season, base_slots, additional_slots
		FROM keeper_slot_allotments
		WHERE team_id = $1 AND season = $2`,
		teamID, season,
	).Scan(&a.TeamID, &a.Season, &a.BaseSlots, &a.AdditionalSlots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAllotmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keeper allotment: %w", err)
	}
	return &a, nil
}

// AdjustAdditionalSlots adds delta (may be negative) to a team's additional
// slot count. The check constraint on the table rejects negative balances.
func (r *Repository) AdjustAdditionalSlots(ctx context.Context, teamID uuid.UUID, season, delta int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE keeper_slot_allotments
		SET additional_slots = additional_slots + $3
		WHERE team_id = $1 AND season = $2`,
		teamID, season, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust keeper slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to adjust keeper slots: %w", err)
	}
	if affected == 0 {
		return ErrAllotmentNotFound
	}
	return nil
}
