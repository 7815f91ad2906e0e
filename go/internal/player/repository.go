package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// ErrPlayerNotFound is returned when a player id or external id is unknown.
var ErrPlayerNotFound = errors.New("player not found")

// Repository handles all player-related database operations
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new player repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// CreatePlayerRequest contains all data needed to create a player
type CreatePlayerRequest struct {
	ExternalID string
	FullName   string
	Position   models.PositionCategory
}

const playerColumns = `id, external_id, full_name, position, created_at`

// CreatePlayer inserts a new player into the directory.
func (r *Repository) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO players (id, external_id, full_name, position)
		VALUES ($1, $2, $3, $4)
		RETURNING `+playerColumns,
		uuid.New(), req.ExternalID, req.FullName, string(req.Position),
	)
	player, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

func (r *Repository) GetPlayerByExternalID(ctx context.Context, externalID string) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE external_id = $1`, externalID)
	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by external id: %w", err)
	}
	return player, nil
}

// ListByPosition returns every player in one position category, name-ordered.
func (r *Repository) ListByPosition(ctx context.Context, position models.PositionCategory) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE position = $1
		ORDER BY full_name`, string(position))
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *player)
	}
	return players, rows.Err()
}

// SearchByName matches players by case-insensitive substring.
func (r *Repository) SearchByName(ctx context.Context, query string, limit int) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE full_name ILIKE '%' || $1 || '%'
		ORDER BY full_name
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *player)
	}
	return players, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var player models.Player
	var position string
	if err := row.Scan(
		&player.ID,
		&player.ExternalID,
		&player.FullName,
		&position,
		&player.CreatedAt,
	); err != nil {
		return nil, err
	}
	player.Position = models.PositionCategory(position)
	return &player, nil
}
