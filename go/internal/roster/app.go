package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
)

// RosterRepository defines what the app layer needs from the repository
type RosterRepository interface {
	FindEntryByPlayer(ctx context.Context, playerID uuid.UUID) (*models.RosterEntry, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.RosterEntry, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int, error)
}

// App exposes read access to the roster store. All mutations go through the
// waiver resolver or trade executor; nothing else writes ownership.
type App struct {
	repo RosterRepository
}

func NewApp(repo RosterRepository) *App {
	return &App{repo: repo}
}

// TeamRoster is a team's current roster with its derived size.
type TeamRoster struct {
	TeamID  uuid.UUID            `json:"team_id"`
	Size    int                  `json:"size"`
	Entries []models.RosterEntry `json:"entries"`
}

// GetTeamRoster returns all entries for a team.
func (a *App) GetTeamRoster(ctx context.Context, teamID uuid.UUID) (*TeamRoster, error) {
	entries, err := a.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team roster: %w", err)
	}
	return &TeamRoster{TeamID: teamID, Size: len(entries), Entries: entries}, nil
}

// OwnerOf returns the team currently rostering playerID, or nil if the
// player is a free agent.
func (a *App) OwnerOf(ctx context.Context, playerID uuid.UUID) (*uuid.UUID, error) {
	entry, err := a.repo.FindEntryByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up player owner: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	return &entry.TeamID, nil
}
