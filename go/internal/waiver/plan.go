package waiver

import (
	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
)

// CascadeRejection is one pending claim invalidated by an approval, with the
// priority it would have carried had it been resolved.
type CascadeRejection struct {
	Claim    models.WaiverClaim
	Priority *int
}

// ApprovalPlan is the full set of mutations an approval implies, computed
// before anything is written so the cascade is auditable and testable
// without a live store.
type ApprovalPlan struct {
	ClaimID  uuid.UUID
	Priority int
	Cascade  []CascadeRejection
}

// Supersedes reports whether approving `approved` invalidates `other`: they
// compete for the same pickup, or `other` depends on the prior state of the
// player `approved` is dropping.
func Supersedes(approved *models.WaiverClaim, other *models.WaiverClaim) bool {
	if other.ID == approved.ID || other.Status != models.WaiverClaimStatusPending {
		return false
	}
	if other.PickupPlayerID == approved.PickupPlayerID {
		return true
	}
	if approved.DropPlayerID == nil {
		return false
	}
	drop := *approved.DropPlayerID
	if other.PickupPlayerID == drop {
		return true
	}
	return other.DropPlayerID != nil && *other.DropPlayerID == drop
}

// BuildApprovalPlan selects every pending claim superseded by approving
// claim and attaches per-team priorities. Priorities apply even to claims
// about to be rejected, so the historical record shows where each request
// would have ranked.
func BuildApprovalPlan(claim *models.WaiverClaim, pending []models.WaiverClaim, priorities map[uuid.UUID]int) ApprovalPlan {
	plan := ApprovalPlan{
		ClaimID:  claim.ID,
		Priority: priorities[claim.TeamID],
	}
	for _, other := range pending {
		if !Supersedes(claim, &other) {
			continue
		}
		rejection := CascadeRejection{Claim: other}
		if p, ok := priorities[other.TeamID]; ok {
			rejection.Priority = &p
		}
		plan.Cascade = append(plan.Cascade, rejection)
	}
	return plan
}
