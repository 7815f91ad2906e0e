package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
)

// PlayerRepository defines what the app layer needs from the repository
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetPlayerByExternalID(ctx context.Context, externalID string) (*models.Player, error)
	ListByPosition(ctx context.Context, position models.PositionCategory) ([]models.Player, error)
	SearchByName(ctx context.Context, query string, limit int) ([]models.Player, error)
}

// App handles player directory business logic
type App struct {
	repo PlayerRepository
}

func NewApp(repo PlayerRepository) *App {
	return &App{repo: repo}
}

// CreatePlayer registers a player, normalizing feed position abbreviations.
// Existing external ids resolve to the already-registered player.
func (a *App) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	req.Position = models.NormalizePosition(string(req.Position))
	if err := a.validateCreatePlayerRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := a.repo.GetPlayerByExternalID(ctx, req.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrPlayerNotFound) {
		return nil, err
	}

	return a.repo.CreatePlayer(ctx, req)
}

func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

func (a *App) ListByPosition(ctx context.Context, position models.PositionCategory) ([]models.Player, error) {
	position = models.NormalizePosition(string(position))
	if !position.Valid() {
		return nil, fmt.Errorf("unknown position category: %s", position)
	}
	return a.repo.ListByPosition(ctx, position)
}

func (a *App) SearchByName(ctx context.Context, query string, limit int) ([]models.Player, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return a.repo.SearchByName(ctx, query, limit)
}

func (a *App) validateCreatePlayerRequest(req CreatePlayerRequest) error {
	if req.ExternalID == "" {
		return fmt.Errorf("external_id is required")
	}
	if req.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if !req.Position.Valid() {
		return fmt.Errorf("unknown position category: %s", req.Position)
	}
	return nil
}
