package models

import (
	"time"

	"github.com/google/uuid"
)

// FantasyTeam is one franchise in the league. The league is single-instance;
// teams are identified by name and owner.
type FantasyTeam struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerName string    `json:"owner_name"`
	CreatedAt time.Time `json:"created_at"`
}
