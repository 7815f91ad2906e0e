package standings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/sqlutil"
)

// ErrTeamNotRanked is returned when a team has no standings row for a season.
var ErrTeamNotRanked = errors.New("team not ranked for season")

// Repository reads season standings. The engine only consumes ranks; rows are
// maintained by the scoring subsystem.
type Repository struct {
	db sqlutil.DBTX
}

func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// Rank returns the team's standings rank (1 = first place) and the number of
// ranked teams for the season.
func (r *Repository) Rank(ctx context.Context, season int, teamID uuid.UUID) (rank, total int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT rank FROM standings WHERE season = $1 AND team_id = $2`,
		season, teamID,
	).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrTeamNotRanked
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get standings rank: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM standings WHERE season = $1`,
		season,
	).Scan(&total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count ranked teams: %w", err)
	}
	return rank, total, nil
}
