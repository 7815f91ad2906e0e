package models

import (
	"time"

	"github.com/google/uuid"
)

// WaiverClaimStatus defines the lifecycle state of a claim. Claims transition
// exactly once to a terminal state and are never deleted.
type WaiverClaimStatus string

const (
	WaiverClaimStatusPending  WaiverClaimStatus = "PENDING"
	WaiverClaimStatusApproved WaiverClaimStatus = "APPROVED"
	WaiverClaimStatusRejected WaiverClaimStatus = "REJECTED"
)

// Rejection reasons recorded on terminal claims.
const (
	RejectionReasonSuperseded     = "SUPERSEDED_BY_COMPETING_CLAIM"
	RejectionReasonAdminRejected  = "ADMIN_REJECTED"
	RejectionReasonOwnerCancelled = "OWNER_CANCELLED"
)

// WaiverClaim is a ranked request to acquire an unrostered player, optionally
// dropping a rostered one. Mutated only by the resolver once submitted.
type WaiverClaim struct {
	ID               uuid.UUID         `json:"id"`
	TeamID           uuid.UUID         `json:"team_id"`
	Season           int               `json:"season"`
	PickupPlayerID   uuid.UUID         `json:"pickup_player_id"`
	DropPlayerID     *uuid.UUID        `json:"drop_player_id,omitempty"`
	Round            int               `json:"round"` // waiver round, 1 or 2
	SubmissionOrder  int               `json:"submission_order"`
	Status           WaiverClaimStatus `json:"status"`
	ResolvedPriority *int              `json:"resolved_priority,omitempty"`
	RejectionReason  *string           `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
}
