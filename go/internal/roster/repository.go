package roster

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// ErrEntryNotFound is returned when a roster entry does not exist.
var ErrEntryNotFound = errors.New("roster entry not found")

// ErrPlayerOwned is returned when an insert collides with the unique index on
// player_id: some committed transaction already rostered the player.
var ErrPlayerOwned = errors.New("player already rostered")

// Repository is the authoritative store of (team, player) ownership.
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

type AddEntryRequest struct {
	TeamID          uuid.UUID              `json:"team_id"`
	PlayerID        uuid.UUID              `json:"player_id"`
	AcquisitionType models.AcquisitionType `json:"acquisition_type"`
	Keeper          bool                   `json:"keeper"`
	AcquiredAt      time.Time              `json:"acquired_at"`
}

const rosterColumns = `id, team_id, player_id, acquisition_type, acquired_at, keeper`

// AddEntry inserts a roster entry. The unique index on player_id enforces
// single ownership at the store level as a backstop to engine validation.
func (r *Repository) AddEntry(ctx context.Context, req AddEntryRequest) (*models.RosterEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO roster_entries (id, team_id, player_id, acquisition_type, acquired_at, keeper)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+rosterColumns,
		uuid.New(), req.TeamID, req.PlayerID, string(req.AcquisitionType), req.AcquiredAt, req.Keeper,
	)
	entry, err := scanEntry(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: %s", ErrPlayerOwned, req.PlayerID)
		}
		return nil, fmt.Errorf("failed to add roster entry: %w", err)
	}
	return entry, nil
}

// LockTeams takes row locks on the given teams, in id order so two
// transactions locking the same pair cannot deadlock. Roster reads and
// writes for a locked team then serialize until commit.
func (r *Repository) LockTeams(ctx context.Context, teamIDs ...uuid.UUID) error {
	ids := make([]uuid.UUID, len(teamIDs))
	copy(ids, teamIDs)
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	for _, id := range ids {
		var locked uuid.UUID
		err := r.db.QueryRowContext(ctx, `
			SELECT id FROM fantasy_teams WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&locked)
		if err != nil {
			return fmt.Errorf("failed to lock team %s: %w", id, err)
		}
	}
	return nil
}

// FindEntryByPlayer returns the entry owning playerID, or nil if the player
// is unrostered.
func (r *Repository) FindEntryByPlayer(ctx context.Context, playerID uuid.UUID) (*models.RosterEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+rosterColumns+` FROM roster_entries WHERE player_id = $1`,
		playerID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find roster entry by player: %w", err)
	}
	return entry, nil
}

// GetEntry returns the entry for (teamID, playerID) or ErrEntryNotFound.
func (r *Repository) GetEntry(ctx context.Context, teamID, playerID uuid.UUID) (*models.RosterEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+rosterColumns+` FROM roster_entries WHERE team_id = $1 AND player_id = $2`,
		teamID, playerID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get roster entry: %w", err)
	}
	return entry, nil
}

// ListByTeam returns all entries for a team ordered by acquisition time.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+rosterColumns+` FROM roster_entries WHERE team_id = $1 ORDER BY acquired_at`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster entries: %w", err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// CountByTeam returns the team's current roster size.
func (r *Repository) CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM roster_entries WHERE team_id = $1`,
		teamID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count roster entries: %w", err)
	}
	return count, nil
}

// RemoveEntryByPlayer deletes the entry for (teamID, playerID).
// Returns ErrEntryNotFound if the player is not on that roster.
func (r *Repository) RemoveEntryByPlayer(ctx context.Context, teamID, playerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM roster_entries WHERE team_id = $1 AND player_id = $2`,
		teamID, playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove roster entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove roster entry: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.RosterEntry, error) {
	var entry models.RosterEntry
	var acquisitionType string
	if err := row.Scan(
		&entry.ID,
		&entry.TeamID,
		&entry.PlayerID,
		&acquisitionType,
		&entry.AcquiredAt,
		&entry.Keeper,
	); err != nil {
		return nil, err
	}
	entry.AcquisitionType = models.AcquisitionType(acquisitionType)
	return &entry, nil
}
