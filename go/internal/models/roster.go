package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxRosterSize is the hard cap on roster entries per team.
const MaxRosterSize = 21

// RosterEntry is the authoritative (team, player) ownership pair.
// A player appears in at most one team's roster at any time.
type RosterEntry struct {
	ID              uuid.UUID       `json:"id"`
	TeamID          uuid.UUID       `json:"team_id"`
	PlayerID        uuid.UUID       `json:"player_id"`
	AcquisitionType AcquisitionType `json:"acquisition_type"`
	AcquiredAt      time.Time       `json:"acquired_at"`
	Keeper          bool            `json:"keeper"`
}

// AcquisitionType represents how a player was acquired
type AcquisitionType string

const (
	AcquisitionTypeDraft     AcquisitionType = "DRAFT"
	AcquisitionTypeTrade     AcquisitionType = "TRADE"
	AcquisitionTypeFreeAgent AcquisitionType = "FREE_AGENT"
	AcquisitionTypeKeeper    AcquisitionType = "KEEPER"
)
