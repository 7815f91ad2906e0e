package player

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrfl/league/go/internal/models"
)

type fakePlayerRepo struct {
	byExternal map[string]*models.Player
	created    int
	lastSearch struct {
		query string
		limit int
	}
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{byExternal: make(map[string]*models.Player)}
}

func (f *fakePlayerRepo) CreatePlayer(_ context.Context, req CreatePlayerRequest) (*models.Player, error) {
	p := &models.Player{
		ID:         uuid.New(),
		ExternalID: req.ExternalID,
		FullName:   req.FullName,
		Position:   req.Position,
	}
	f.byExternal[req.ExternalID] = p
	f.created++
	return p, nil
}

func (f *fakePlayerRepo) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	for _, p := range f.byExternal {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (f *fakePlayerRepo) GetPlayerByExternalID(_ context.Context, externalID string) (*models.Player, error) {
	if p, ok := f.byExternal[externalID]; ok {
		return p, nil
	}
	return nil, ErrPlayerNotFound
}

func (f *fakePlayerRepo) ListByPosition(_ context.Context, position models.PositionCategory) ([]models.Player, error) {
	var out []models.Player
	for _, p := range f.byExternal {
		if p.Position == position {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) SearchByName(_ context.Context, query string, limit int) ([]models.Player, error) {
	f.lastSearch.query = query
	f.lastSearch.limit = limit
	return nil, nil
}

func TestCreatePlayer(t *testing.T) {
	t.Run("normalizes kicker position", func(t *testing.T) {
		repo := newFakePlayerRepo()
		app := NewApp(repo)

		created, err := app.CreatePlayer(context.Background(), CreatePlayerRequest{
			ExternalID: "nfl-100",
			FullName:   "Casey Ward",
			Position:   "K",
		})
		require.NoError(t, err)
		assert.Equal(t, models.PositionPK, created.Position)
	})

	t.Run("duplicate external id resolves to existing player", func(t *testing.T) {
		repo := newFakePlayerRepo()
		app := NewApp(repo)

		first, err := app.CreatePlayer(context.Background(), CreatePlayerRequest{
			ExternalID: "nfl-200",
			FullName:   "Marcus Hill",
			Position:   "RB",
		})
		require.NoError(t, err)

		second, err := app.CreatePlayer(context.Background(), CreatePlayerRequest{
			ExternalID: "nfl-200",
			FullName:   "Marcus Hill",
			Position:   "RB",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, repo.created)
	})

	t.Run("rejects unknown position", func(t *testing.T) {
		app := NewApp(newFakePlayerRepo())

		_, err := app.CreatePlayer(context.Background(), CreatePlayerRequest{
			ExternalID: "nfl-300",
			FullName:   "Devon Carter",
			Position:   "LB",
		})
		assert.Error(t, err)
	})

	t.Run("rejects missing external id", func(t *testing.T) {
		app := NewApp(newFakePlayerRepo())

		_, err := app.CreatePlayer(context.Background(), CreatePlayerRequest{
			FullName: "Devon Carter",
			Position: "WR",
		})
		assert.Error(t, err)
	})
}

func TestListByPosition(t *testing.T) {
	repo := newFakePlayerRepo()
	app := NewApp(repo)
	ctx := context.Background()

	_, err := app.CreatePlayer(ctx, CreatePlayerRequest{ExternalID: "nfl-1", FullName: "A", Position: "QB"})
	require.NoError(t, err)
	_, err = app.CreatePlayer(ctx, CreatePlayerRequest{ExternalID: "nfl-2", FullName: "B", Position: "WR"})
	require.NoError(t, err)

	players, err := app.ListByPosition(ctx, "QB")
	require.NoError(t, err)
	assert.Len(t, players, 1)

	_, err = app.ListByPosition(ctx, "DL")
	assert.Error(t, err)
}

func TestSearchByNameLimits(t *testing.T) {
	repo := newFakePlayerRepo()
	app := NewApp(repo)
	ctx := context.Background()

	_, err := app.SearchByName(ctx, "hill", 0)
	require.NoError(t, err)
	assert.Equal(t, 25, repo.lastSearch.limit)

	_, err = app.SearchByName(ctx, "hill", 500)
	require.NoError(t, err)
	assert.Equal(t, 25, repo.lastSearch.limit)

	_, err = app.SearchByName(ctx, "hill", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastSearch.limit)

	_, err = app.SearchByName(ctx, "", 10)
	assert.Error(t, err)
}
