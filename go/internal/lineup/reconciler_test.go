package lineup

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrfl/league/go/internal/models"
)

type substitution struct {
	oldPlayer uuid.UUID
	newPlayer uuid.UUID
	fromWeek  int
}

type appended struct {
	week     int
	playerID uuid.UUID
}

type fakeLineupRepo struct {
	provisional   map[uuid.UUID]InsertProvisionalRequest
	confirmed     []uuid.UUID
	substitutions []substitution
	subMatches    int
	unlockedWeeks []int
	appendedSlots []appended
	removed       []uuid.UUID
}

func newFakeLineupRepo() *fakeLineupRepo {
	return &fakeLineupRepo{provisional: make(map[uuid.UUID]InsertProvisionalRequest)}
}

func (f *fakeLineupRepo) InsertProvisional(_ context.Context, req InsertProvisionalRequest) error {
	f.provisional[req.ClaimID] = req
	return nil
}

func (f *fakeLineupRepo) DeleteProvisionalByClaim(_ context.Context, claimID uuid.UUID) error {
	delete(f.provisional, claimID)
	return nil
}

func (f *fakeLineupRepo) ConfirmProvisionalByClaim(_ context.Context, claimID uuid.UUID) (int, error) {
	if _, ok := f.provisional[claimID]; !ok {
		return 0, nil
	}
	delete(f.provisional, claimID)
	f.confirmed = append(f.confirmed, claimID)
	return 1, nil
}

func (f *fakeLineupRepo) SubstitutePlayer(_ context.Context, _ uuid.UUID, _, fromWeek int, oldPlayer, newPlayer uuid.UUID, _ models.PositionCategory) (int, error) {
	f.substitutions = append(f.substitutions, substitution{oldPlayer: oldPlayer, newPlayer: newPlayer, fromWeek: fromWeek})
	return f.subMatches, nil
}

func (f *fakeLineupRepo) UnlockedWeeks(_ context.Context, _ uuid.UUID, _, fromWeek int) ([]int, error) {
	var weeks []int
	for _, w := range f.unlockedWeeks {
		if w >= fromWeek {
			weeks = append(weeks, w)
		}
	}
	return weeks, nil
}

func (f *fakeLineupRepo) AppendConfirmed(_ context.Context, _ uuid.UUID, _, week int, _ models.PositionCategory, playerID uuid.UUID) error {
	f.appendedSlots = append(f.appendedSlots, appended{week: week, playerID: playerID})
	return nil
}

func (f *fakeLineupRepo) RemovePlayer(_ context.Context, _ uuid.UUID, _, _ int, playerID uuid.UUID) error {
	f.removed = append(f.removed, playerID)
	return nil
}

func TestReserveAndReleaseProvisionalSlot(t *testing.T) {
	repo := newFakeLineupRepo()
	rec := NewReconciler(repo)
	ctx := context.Background()

	teamID := uuid.New()
	playerID := uuid.New()
	claimID := uuid.New()

	require.NoError(t, rec.ReserveProvisionalSlot(ctx, teamID, playerID, models.PositionWR, 2026, 4, claimID))
	require.Contains(t, repo.provisional, claimID)
	assert.Equal(t, playerID, repo.provisional[claimID].PlayerID)
	assert.Equal(t, 4, repo.provisional[claimID].Week)

	require.NoError(t, rec.ReleaseProvisionalSlot(ctx, claimID))
	assert.NotContains(t, repo.provisional, claimID)
}

func TestOnClaimApprovedSubstitutesDrop(t *testing.T) {
	repo := newFakeLineupRepo()
	repo.subMatches = 3
	rec := NewReconciler(repo)
	ctx := context.Background()

	drop := uuid.New()
	claim := &models.WaiverClaim{
		ID:             uuid.New(),
		TeamID:         uuid.New(),
		Season:         2026,
		PickupPlayerID: uuid.New(),
		DropPlayerID:   &drop,
	}
	require.NoError(t, rec.ReserveProvisionalSlot(ctx, claim.TeamID, claim.PickupPlayerID, models.PositionRB, claim.Season, 5, claim.ID))

	require.NoError(t, rec.OnClaimApproved(ctx, claim, models.PositionRB, 5))

	assert.Equal(t, []uuid.UUID{claim.ID}, repo.confirmed)
	require.Len(t, repo.substitutions, 1)
	assert.Equal(t, drop, repo.substitutions[0].oldPlayer)
	assert.Equal(t, claim.PickupPlayerID, repo.substitutions[0].newPlayer)
	assert.Equal(t, 5, repo.substitutions[0].fromWeek)
	// Substitution matched, so nothing is appended.
	assert.Empty(t, repo.appendedSlots)
}

func TestOnPlayerAcquiredAppendsWhenDropUnslotted(t *testing.T) {
	repo := newFakeLineupRepo()
	repo.subMatches = 0
	repo.unlockedWeeks = []int{3, 4, 5, 6}
	rec := NewReconciler(repo)

	teamID := uuid.New()
	playerID := uuid.New()
	drop := uuid.New()

	require.NoError(t, rec.OnPlayerAcquired(context.Background(), teamID, 2026, 5, playerID, models.PositionTE, &drop))

	// Weeks before fromWeek stay untouched.
	require.Len(t, repo.appendedSlots, 2)
	assert.Equal(t, appended{week: 5, playerID: playerID}, repo.appendedSlots[0])
	assert.Equal(t, appended{week: 6, playerID: playerID}, repo.appendedSlots[1])
}

func TestOnPlayerAcquiredWithoutReplacement(t *testing.T) {
	repo := newFakeLineupRepo()
	repo.unlockedWeeks = []int{7}
	rec := NewReconciler(repo)

	playerID := uuid.New()
	require.NoError(t, rec.OnPlayerAcquired(context.Background(), uuid.New(), 2026, 7, playerID, models.PositionQB, nil))

	assert.Empty(t, repo.substitutions)
	require.Len(t, repo.appendedSlots, 1)
	assert.Equal(t, appended{week: 7, playerID: playerID}, repo.appendedSlots[0])
}

func TestOnPlayerReleased(t *testing.T) {
	repo := newFakeLineupRepo()
	rec := NewReconciler(repo)

	playerID := uuid.New()
	require.NoError(t, rec.OnPlayerReleased(context.Background(), uuid.New(), 2026, 4, playerID))
	assert.Equal(t, []uuid.UUID{playerID}, repo.removed)
}
