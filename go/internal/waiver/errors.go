package waiver

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for errors.Is checks. Detail-carrying variants below
// satisfy Is against their sentinel and expose fields via errors.As.
var (
	ErrPlayerAlreadyRostered   = errors.New("pickup player is already rostered")
	ErrDropPlayerNotOwned      = errors.New("drop player is not on the claiming team's roster")
	ErrRosterFull              = errors.New("roster is full")
	ErrPlayerNoLongerAvailable = errors.New("pickup player is no longer available")
	ErrClaimNotPending         = errors.New("claim is not pending")
	ErrNotClaimOwner           = errors.New("claim belongs to another team")
	ErrInvalidRound            = errors.New("waiver round must be 1 or 2")
)

// PlayerRosteredError reports who currently owns the requested pickup.
type PlayerRosteredError struct {
	PlayerID    uuid.UUID
	OwnerTeamID uuid.UUID
}

func (e *PlayerRosteredError) Error() string {
	return fmt.Sprintf("player %s is already rostered by team %s", e.PlayerID, e.OwnerTeamID)
}

func (e *PlayerRosteredError) Is(target error) bool { return target == ErrPlayerAlreadyRostered }

// RosterFullError reports why a no-drop claim cannot be accommodated.
type RosterFullError struct {
	TeamID            uuid.UUID
	RosterSize        int
	PendingNoDropBids int
}

func (e *RosterFullError) Error() string {
	return fmt.Sprintf("team %s roster is full: %d rostered plus %d pending no-drop claims",
		e.TeamID, e.RosterSize, e.PendingNoDropBids)
}

func (e *RosterFullError) Is(target error) bool { return target == ErrRosterFull }
