package models

import "github.com/google/uuid"

// KeeperSlotAllotment controls how many players a team may retain across
// seasons. AdditionalSlots is mutated only by trade execution.
type KeeperSlotAllotment struct {
	TeamID          uuid.UUID `json:"team_id"`
	Season          int       `json:"season"`
	BaseSlots       int       `json:"base_slots"`
	AdditionalSlots int       `json:"additional_slots"`
}
