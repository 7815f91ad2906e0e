package models

import (
	"time"

	"github.com/google/uuid"
)

// PositionCategory is one of the five fixed lineup position categories.
type PositionCategory string

const (
	PositionQB PositionCategory = "QB"
	PositionRB PositionCategory = "RB"
	PositionWR PositionCategory = "WR"
	PositionTE PositionCategory = "TE"
	PositionPK PositionCategory = "PK"
)

// NormalizePosition maps raw feed abbreviations onto a PositionCategory.
// Kickers arrive as either "K" or "PK" depending on the source.
func NormalizePosition(raw string) PositionCategory {
	if raw == "K" {
		return PositionPK
	}
	return PositionCategory(raw)
}

// Valid reports whether p is one of the five known categories.
func (p PositionCategory) Valid() bool {
	switch p {
	case PositionQB, PositionRB, PositionWR, PositionTE, PositionPK:
		return true
	}
	return false
}

// Player represents a real-world athlete. Identity is immutable; ownership
// lives in RosterEntry.
type Player struct {
	ID         uuid.UUID        `json:"id"`
	ExternalID string           `json:"external_id"`
	FullName   string           `json:"full_name"`
	Position   PositionCategory `json:"position"`
	CreatedAt  time.Time        `json:"created_at"`
}
