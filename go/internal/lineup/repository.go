package lineup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// Repository stores weekly lineup slot assignments. Locked rows belong to
// weeks already underway and are never touched here.
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

type InsertProvisionalRequest struct {
	TeamID   uuid.UUID
	Season   int
	Week     int
	Position models.PositionCategory
	PlayerID uuid.UUID
	ClaimID  uuid.UUID
}

// InsertProvisional creates a placeholder slot tied to a pending claim.
func (r *Repository) InsertProvisional(ctx context.Context, req InsertProvisionalRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lineup_slots (id, team_id, season, week, position, player_id, status, claim_id, locked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)`,
		uuid.New(), req.TeamID, req.Season, req.Week, string(req.Position), req.PlayerID,
		string(models.LineupSlotProvisional), req.ClaimID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert provisional slot: %w", err)
	}
	return nil
}

// DeleteProvisionalByClaim removes the placeholder slots a claim reserved.
func (r *Repository) DeleteProvisionalByClaim(ctx context.Context, claimID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM lineup_slots
		WHERE claim_id = $1 AND status = $2 AND NOT locked`,
		claimID, string(models.LineupSlotProvisional),
	)
	if err != nil {
		return fmt.Errorf("failed to delete provisional slots: %w", err)
	}
	return nil
}

// ConfirmProvisionalByClaim converts a claim's placeholder slots into
// confirmed ones and clears the claim link.
func (r *Repository) ConfirmProvisionalByClaim(ctx context.Context, claimID uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lineup_slots
		SET status = $2, claim_id = NULL, updated_at = $3
		WHERE claim_id = $1 AND status = $4 AND NOT locked`,
		claimID, string(models.LineupSlotConfirmed), time.Now().UTC(),
		string(models.LineupSlotProvisional),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm provisional slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to confirm provisional slots: %w", err)
	}
	return int(affected), nil
}

// SubstitutePlayer rewrites every not-yet-locked slot holding oldPlayer in
// weeks >= fromWeek to hold newPlayer instead. Returns rows changed.
func (r *Repository) SubstitutePlayer(ctx context.Context, teamID uuid.UUID, season, fromWeek int, oldPlayer, newPlayer uuid.UUID, newPosition models.PositionCategory) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lineup_slots
		SET player_id = $5, position = $6, updated_at = $7
		WHERE team_id = $1 AND season = $2 AND week >= $3 AND player_id = $4 AND NOT locked`,
		teamID, season, fromWeek, oldPlayer, newPlayer, string(newPosition), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to substitute player in lineups: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to substitute player in lineups: %w", err)
	}
	return int(affected), nil
}

// UnlockedWeeks returns the distinct not-yet-locked weeks >= fromWeek for
// which the team has lineup rows.
func (r *Repository) UnlockedWeeks(ctx context.Context, teamID uuid.UUID, season, fromWeek int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT week FROM lineup_slots
		WHERE team_id = $1 AND season = $2 AND week >= $3 AND NOT locked
		ORDER BY week`,
		teamID, season, fromWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked weeks: %w", err)
	}
	defer rows.Close()

	var weeks []int
	for rows.Next() {
		var week int
		if err := rows.Scan(&week); err != nil {
			return nil, fmt.Errorf("failed to scan week: %w", err)
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

// AppendConfirmed adds a confirmed slot for a week.
func (r *Repository) AppendConfirmed(ctx context.Context, teamID uuid.UUID, season, week int, position models.PositionCategory, playerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lineup_slots (id, team_id, season, week, position, player_id, status, claim_id, locked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, FALSE, $8)`,
		uuid.New(), teamID, season, week, string(position), playerID,
		string(models.LineupSlotConfirmed), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append lineup slot: %w", err)
	}
	return nil
}

// RemovePlayer deletes every not-yet-locked slot holding playerID in weeks
// >= fromWeek.
func (r *Repository) RemovePlayer(ctx context.Context, teamID uuid.UUID, season, fromWeek int, playerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM lineup_slots
		WHERE team_id = $1 AND season = $2 AND week >= $3 AND player_id = $4 AND NOT locked`,
		teamID, season, fromWeek, playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove player from lineups: %w", err)
	}
	return nil
}
