package models

import (
	"time"

	"github.com/google/uuid"
)

// LineupSlotStatus distinguishes confirmed lineup placements from provisional
// placeholders created by pending waiver claims.
type LineupSlotStatus string

const (
	LineupSlotConfirmed   LineupSlotStatus = "CONFIRMED"
	LineupSlotProvisional LineupSlotStatus = "PROVISIONAL"
)

// LineupSlot is one weekly lineup position assignment. Locked slots belong to
// weeks whose games have started and are never rewritten by the reconciler.
type LineupSlot struct {
	ID        uuid.UUID        `json:"id"`
	TeamID    uuid.UUID        `json:"team_id"`
	Season    int              `json:"season"`
	Week      int              `json:"week"`
	Position  PositionCategory `json:"position"`
	PlayerID  uuid.UUID        `json:"player_id"`
	Status    LineupSlotStatus `json:"status"`
	ClaimID   *uuid.UUID       `json:"claim_id,omitempty"` // set while provisional
	Locked    bool             `json:"locked"`
	UpdatedAt time.Time        `json:"updated_at"`
}
