package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// ErrTeamNotFound is returned when a team id is unknown.
var ErrTeamNotFound = errors.New("team not found")

// Repository handles all fantasy team database operations
type Repository struct {
	db sqlutil.DBTX
}

func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// CreateTeamRequest contains all data needed to register a franchise.
type CreateTeamRequest struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
}

// UpdateTeamRequest renames a franchise or records an ownership change.
type UpdateTeamRequest struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
}

const teamColumns = `id, name, owner_name, created_at`

func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.FantasyTeam, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO fantasy_teams (id, name, owner_name)
		VALUES ($1, $2, $3)
		RETURNING `+teamColumns,
		uuid.New(), req.Name, req.OwnerName,
	)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.FantasyTeam, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+teamColumns+` FROM fantasy_teams WHERE id = $1`, id)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// ListTeams returns every franchise in the league, name-ordered.
func (r *Repository) ListTeams(ctx context.Context) ([]models.FantasyTeam, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+teamColumns+` FROM fantasy_teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.FantasyTeam
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func (r *Repository) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.FantasyTeam, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE fantasy_teams
		SET name = $2, owner_name = $3
		WHERE id = $1
		RETURNING `+teamColumns,
		id, req.Name, req.OwnerName,
	)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*models.FantasyTeam, error) {
	var team models.FantasyTeam
	if err := row.Scan(
		&team.ID,
		&team.Name,
		&team.OwnerName,
		&team.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}
