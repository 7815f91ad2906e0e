package trade

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
)

// Sentinel errors for errors.Is checks. Detail-carrying variants below
// satisfy Is against their sentinel and expose fields via errors.As.
var (
	ErrTradeNotFound       = errors.New("trade proposal not found")
	ErrStaleTradeState     = errors.New("trade is no longer in the expected state")
	ErrMustSelectDrops     = errors.New("drop players must be selected to stay under the roster limit")
	ErrRosterLimitExceeded = errors.New("trade would exceed the roster limit")
	ErrNotTradeParticipant = errors.New("team is not a participant of this trade")
	ErrSelfTrade           = errors.New("a team cannot trade with itself")
	ErrPlayerNotOwned      = errors.New("player item is not owned by its sending team")
	ErrInsufficientSlots   = errors.New("sending team holds fewer additional keeper slots than offered")
	ErrEmptyTrade          = errors.New("trade must include at least one item")
	ErrItemOutsideTrade    = errors.New("item references a team outside the trade")
	ErrInvalidPickSeason   = errors.New("pick season is out of the tradable window")
	ErrInvalidPickRound    = errors.New("pick round is out of range")
	ErrDropPlayerNotOwned  = errors.New("declared drop player is not on the declaring team's roster")
	ErrDropPlayerDeparting = errors.New("declared drop player is already leaving in the trade")
)

// StaleTradeStateError reports a status transition attempted against a trade
// that has already moved on, typically from a concurrent actor.
type StaleTradeStateError struct {
	TradeID  uuid.UUID
	Expected models.TradeStatus
	Actual   models.TradeStatus
}

func (e *StaleTradeStateError) Error() string {
	return fmt.Sprintf("trade %s is %s, expected %s", e.TradeID, e.Actual, e.Expected)
}

func (e *StaleTradeStateError) Is(target error) bool { return target == ErrStaleTradeState }

// MustSelectDropsError tells an accepting or proposing team how many drops
// its declared list is short.
type MustSelectDropsError struct {
	TeamID        uuid.UUID
	PlayersToDrop int
}

func (e *MustSelectDropsError) Error() string {
	return fmt.Sprintf("team %s must select %d player(s) to drop", e.TeamID, e.PlayersToDrop)
}

func (e *MustSelectDropsError) Is(target error) bool { return target == ErrMustSelectDrops }

// RosterLimitError reports the post-execution overflow found when an admin
// tries to execute a trade whose drop declarations no longer suffice.
type RosterLimitError struct {
	TeamID        uuid.UUID
	PlayersToDrop int
}

func (e *RosterLimitError) Error() string {
	return fmt.Sprintf("executing this trade would put team %s %d player(s) over the roster limit",
		e.TeamID, e.PlayersToDrop)
}

func (e *RosterLimitError) Is(target error) bool { return target == ErrRosterLimitExceeded }

// PlayerNotOwnedError identifies which player item failed ownership checks.
type PlayerNotOwnedError struct {
	TeamID   uuid.UUID
	PlayerID uuid.UUID
}

func (e *PlayerNotOwnedError) Error() string {
	return fmt.Sprintf("player %s is not on team %s's roster", e.PlayerID, e.TeamID)
}

func (e *PlayerNotOwnedError) Is(target error) bool { return target == ErrPlayerNotOwned }
