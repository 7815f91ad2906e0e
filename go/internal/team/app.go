package team

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
)

// TeamRepository defines what the app layer needs from the repository
type TeamRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.FantasyTeam, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.FantasyTeam, error)
	ListTeams(ctx context.Context) ([]models.FantasyTeam, error)
	UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.FantasyTeam, error)
}

// App handles franchise business logic
type App struct {
	repo TeamRepository
}

func NewApp(repo TeamRepository) *App {
	return &App{repo: repo}
}

func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.FantasyTeam, error) {
	if err := validateTeamFields(req.Name, req.OwnerName); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return a.repo.CreateTeam(ctx, req)
}

func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.FantasyTeam, error) {
	return a.repo.GetTeam(ctx, id)
}

func (a *App) ListTeams(ctx context.Context) ([]models.FantasyTeam, error) {
	return a.repo.ListTeams(ctx)
}

// UpdateTeam renames a franchise or swaps its owner of record.
func (a *App) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.FantasyTeam, error) {
	if err := validateTeamFields(req.Name, req.OwnerName); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return a.repo.UpdateTeam(ctx, id, req)
}

func validateTeamFields(name, ownerName string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if ownerName == "" {
		return fmt.Errorf("owner_name is required")
	}
	return nil
}
