package lineup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gbrfl/league/go/internal/models"
)

// LineupRepository defines what the reconciler needs from the repository
type LineupRepository interface {
	InsertProvisional(ctx context.Context, req InsertProvisionalRequest) error
	DeleteProvisionalByClaim(ctx context.Context, claimID uuid.UUID) error
	ConfirmProvisionalByClaim(ctx context.Context, claimID uuid.UUID) (int, error)
	SubstitutePlayer(ctx context.Context, teamID uuid.UUID, season, fromWeek int, oldPlayer, newPlayer uuid.UUID, newPosition models.PositionCategory) (int, error)
	UnlockedWeeks(ctx context.Context, teamID uuid.UUID, season, fromWeek int) ([]int, error)
	AppendConfirmed(ctx context.Context, teamID uuid.UUID, season, week int, position models.PositionCategory, playerID uuid.UUID) error
	RemovePlayer(ctx context.Context, teamID uuid.UUID, season, fromWeek int, playerID uuid.UUID) error
}

// Reconciler keeps weekly lineup slots consistent when a player enters or
// leaves a roster. It runs strictly after the core roster transaction commits
// and never blocks or reverses it.
type Reconciler struct {
	repo LineupRepository
}

func NewReconciler(repo LineupRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

// ReserveProvisionalSlot visually occupies a lineup slot for a pending claim.
func (r *Reconciler) ReserveProvisionalSlot(ctx context.Context, teamID, playerID uuid.UUID, position models.PositionCategory, season, week int, claimID uuid.UUID) error {
	err := r.repo.InsertProvisional(ctx, InsertProvisionalRequest{
		TeamID:   teamID,
		Season:   season,
		Week:     week,
		Position: position,
		PlayerID: playerID,
		ClaimID:  claimID,
	})
	if err != nil {
		return fmt.Errorf("failed to reserve provisional slot: %w", err)
	}
	return nil
}

// ReleaseProvisionalSlot clears the placeholder created for one claim.
func (r *Reconciler) ReleaseProvisionalSlot(ctx context.Context, claimID uuid.UUID) error {
	if err := r.repo.DeleteProvisionalByClaim(ctx, claimID); err != nil {
		return fmt.Errorf("failed to release provisional slot: %w", err)
	}
	return nil
}

// OnClaimApproved converts the winning claim's placeholder into a confirmed
// slot and substitutes the pickup for the drop in all not-yet-locked weeks.
func (r *Reconciler) OnClaimApproved(ctx context.Context, claim *models.WaiverClaim, position models.PositionCategory, fromWeek int) error {
	confirmed, err := r.repo.ConfirmProvisionalByClaim(ctx, claim.ID)
	if err != nil {
		return err
	}
	log.Debug().
		Str("claim_id", claim.ID.String()).
		Int("confirmed_slots", confirmed).
		Msg("confirmed provisional lineup slots")

	return r.OnPlayerAcquired(ctx, claim.TeamID, claim.Season, fromWeek, claim.PickupPlayerID, position, claim.DropPlayerID)
}

// OnPlayerAcquired substitutes the new player into all not-yet-locked
// future-week lineups that contained the replaced player, or appends the
// player to each unlocked week if no substitution target exists.
func (r *Reconciler) OnPlayerAcquired(ctx context.Context, teamID uuid.UUID, season, fromWeek int, playerID uuid.UUID, position models.PositionCategory, replacing *uuid.UUID) error {
	if replacing != nil {
		changed, err := r.repo.SubstitutePlayer(ctx, teamID, season, fromWeek, *replacing, playerID, position)
		if err != nil {
			return err
		}
		if changed > 0 {
			log.Info().
				Str("team_id", teamID.String()).
				Str("player_id", playerID.String()).
				Int("weeks", changed).
				Msg("substituted player into future lineups")
			return nil
		}
		// Replaced player was not slotted anywhere; fall through to append.
	}

	weeks, err := r.repo.UnlockedWeeks(ctx, teamID, season, fromWeek)
	if err != nil {
		return err
	}
	for _, week := range weeks {
		if err := r.repo.AppendConfirmed(ctx, teamID, season, week, position, playerID); err != nil {
			return err
		}
	}
	return nil
}

// OnPlayerReleased removes a departed player from every not-yet-locked
// future-week lineup.
func (r *Reconciler) OnPlayerReleased(ctx context.Context, teamID uuid.UUID, season, fromWeek int, playerID uuid.UUID) error {
	if err := r.repo.RemovePlayer(ctx, teamID, season, fromWeek, playerID); err != nil {
		return err
	}
	return nil
}
