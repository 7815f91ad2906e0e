package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
)

// LedgerRepository defines what the app layer needs from the repository
type LedgerRepository interface {
	GetRecord(ctx context.Context, id uuid.UUID) (*models.TransactionRecord, error)
	ListRecordsByTeam(ctx context.Context, teamID uuid.UUID, season int) ([]models.TransactionRecord, error)
}

// App exposes ledger history for audit and reporting views. Appends happen
// only inside resolver/executor transactions.
type App struct {
	repo LedgerRepository
}

func NewApp(repo LedgerRepository) *App {
	return &App{repo: repo}
}

// GetRecord retrieves a single ledger record by id.
func (a *App) GetRecord(ctx context.Context, id uuid.UUID) (*models.TransactionRecord, error) {
	rec, err := a.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger record: %w", err)
	}
	return rec, nil
}

// TeamHistory returns every completed ownership change a team was part of in
// a season, newest first.
func (a *App) TeamHistory(ctx context.Context, teamID uuid.UUID, season int) ([]models.TransactionRecord, error) {
	records, err := a.repo.ListRecordsByTeam(ctx, teamID, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get team history: %w", err)
	}
	return records, nil
}
