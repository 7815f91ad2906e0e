package waiver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrfl/league/go/internal/models"
)

func pendingClaim(team, pickup uuid.UUID, drop *uuid.UUID) models.WaiverClaim {
	return models.WaiverClaim{
		ID:             uuid.New(),
		TeamID:         team,
		Season:         2026,
		PickupPlayerID: pickup,
		DropPlayerID:   drop,
		Round:          1,
		Status:         models.WaiverClaimStatusPending,
	}
}

func TestSupersedes(t *testing.T) {
	teamA := uuid.New()
	teamB := uuid.New()
	playerX := uuid.New()
	playerY := uuid.New()
	playerZ := uuid.New()

	approved := pendingClaim(teamA, playerX, &playerY)

	t.Run("same pickup player", func(t *testing.T) {
		other := pendingClaim(teamB, playerX, nil)
		assert.True(t, Supersedes(&approved, &other))
	})

	t.Run("pickup targets the approved drop", func(t *testing.T) {
		other := pendingClaim(teamB, playerY, nil)
		assert.True(t, Supersedes(&approved, &other))
	})

	t.Run("drop references the approved drop", func(t *testing.T) {
		other := pendingClaim(teamA, playerZ, &playerY)
		assert.True(t, Supersedes(&approved, &other))
	})

	t.Run("unrelated players", func(t *testing.T) {
		other := pendingClaim(teamB, playerZ, nil)
		assert.False(t, Supersedes(&approved, &other))
	})

	t.Run("never supersedes itself", func(t *testing.T) {
		self := approved
		assert.False(t, Supersedes(&approved, &self))
	})

	t.Run("already resolved claims are ignored", func(t *testing.T) {
		other := pendingClaim(teamB, playerX, nil)
		other.Status = models.WaiverClaimStatusRejected
		assert.False(t, Supersedes(&approved, &other))
	})

	t.Run("no-drop approval only matches pickups", func(t *testing.T) {
		noDrop := pendingClaim(teamA, playerX, nil)
		other := pendingClaim(teamB, playerY, &playerX)
		assert.False(t, Supersedes(&noDrop, &other))
	})
}

func TestBuildApprovalPlan(t *testing.T) {
	teamA := uuid.New()
	teamB := uuid.New()
	teamC := uuid.New()
	playerX := uuid.New()
	playerY := uuid.New()
	playerZ := uuid.New()

	winner := pendingClaim(teamA, playerX, &playerY)
	samePickup := pendingClaim(teamB, playerX, nil)
	wantsDrop := pendingClaim(teamC, playerY, nil)
	unrelated := pendingClaim(teamC, playerZ, nil)

	priorities := map[uuid.UUID]int{teamA: 3, teamB: 1, teamC: 7}

	plan := BuildApprovalPlan(&winner, []models.WaiverClaim{winner, samePickup, wantsDrop, unrelated}, priorities)

	assert.Equal(t, winner.ID, plan.ClaimID)
	assert.Equal(t, 3, plan.Priority)
	require.Len(t, plan.Cascade, 2)

	byID := make(map[uuid.UUID]CascadeRejection, len(plan.Cascade))
	for _, rejection := range plan.Cascade {
		byID[rejection.Claim.ID] = rejection
	}

	require.Contains(t, byID, samePickup.ID)
	require.NotNil(t, byID[samePickup.ID].Priority)
	assert.Equal(t, 1, *byID[samePickup.ID].Priority)

	require.Contains(t, byID, wantsDrop.ID)
	require.NotNil(t, byID[wantsDrop.ID].Priority)
	assert.Equal(t, 7, *byID[wantsDrop.ID].Priority)

	assert.NotContains(t, byID, unrelated.ID)
}

func TestBuildApprovalPlanMissingPriority(t *testing.T) {
	teamA := uuid.New()
	teamB := uuid.New()
	playerX := uuid.New()

	winner := pendingClaim(teamA, playerX, nil)
	loser := pendingClaim(teamB, playerX, nil)

	plan := BuildApprovalPlan(&winner, []models.WaiverClaim{loser}, map[uuid.UUID]int{teamA: 2})

	require.Len(t, plan.Cascade, 1)
	assert.Nil(t, plan.Cascade[0].Priority)
}
