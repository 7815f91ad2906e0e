package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus defines the state of a trade proposal. Transitions are strictly
// forward: PROPOSED -> ACCEPTED -> COMPLETED, or -> REJECTED from either
// non-terminal state. No re-opening.
type TradeStatus string

const (
	TradeStatusProposed  TradeStatus = "PROPOSED"
	TradeStatusAccepted  TradeStatus = "ACCEPTED"
	TradeStatusCompleted TradeStatus = "COMPLETED"
	TradeStatusRejected  TradeStatus = "REJECTED"
)

// TradeItemType tags the variant of a trade item.
type TradeItemType string

const (
	TradeItemTypePlayer        TradeItemType = "PLAYER"
	TradeItemTypeDraftPick     TradeItemType = "DRAFT_PICK"
	TradeItemTypeKeeperSlot    TradeItemType = "KEEPER_SLOT"
	TradeItemTypeFreeAgentPick TradeItemType = "FREE_AGENT_PICK"
)

// TradeItem is one asset moving between the two teams of a proposal. Each
// variant carries only the fields valid for its type.
type TradeItem interface {
	ItemType() TradeItemType
	FromTeam() uuid.UUID
	ToTeam() uuid.UUID
}

// PlayerItem moves a currently rostered player.
type PlayerItem struct {
	FromTeamID uuid.UUID `json:"from_team_id"`
	ToTeamID   uuid.UUID `json:"to_team_id"`
	PlayerID   uuid.UUID `json:"player_id"`
}

func (i PlayerItem) ItemType() TradeItemType { return TradeItemTypePlayer }
func (i PlayerItem) FromTeam() uuid.UUID     { return i.FromTeamID }
func (i PlayerItem) ToTeam() uuid.UUID       { return i.ToTeamID }

// DraftPickItem moves a future draft pick. Not a materialized asset; recorded
// on the ledger and consumed later by the draft subsystem.
type DraftPickItem struct {
	FromTeamID uuid.UUID `json:"from_team_id"`
	ToTeamID   uuid.UUID `json:"to_team_id"`
	Season     int       `json:"season"`
	Round      int       `json:"round"`
}

func (i DraftPickItem) ItemType() TradeItemType { return TradeItemTypeDraftPick }
func (i DraftPickItem) FromTeam() uuid.UUID     { return i.FromTeamID }
func (i DraftPickItem) ToTeam() uuid.UUID       { return i.ToTeamID }

// KeeperSlotItem moves part of a team's additional keeper slot allotment.
type KeeperSlotItem struct {
	FromTeamID uuid.UUID `json:"from_team_id"`
	ToTeamID   uuid.UUID `json:"to_team_id"`
	Slots      int       `json:"slots"`
}

func (i KeeperSlotItem) ItemType() TradeItemType { return TradeItemTypeKeeperSlot }
func (i KeeperSlotItem) FromTeam() uuid.UUID     { return i.FromTeamID }
func (i KeeperSlotItem) ToTeam() uuid.UUID       { return i.ToTeamID }

// FreeAgentPickItem moves a future free-agent-pick priority.
type FreeAgentPickItem struct {
	FromTeamID uuid.UUID `json:"from_team_id"`
	ToTeamID   uuid.UUID `json:"to_team_id"`
	Season     int       `json:"season"`
	Round      int       `json:"round"`
}

func (i FreeAgentPickItem) ItemType() TradeItemType { return TradeItemTypeFreeAgentPick }
func (i FreeAgentPickItem) FromTeam() uuid.UUID     { return i.FromTeamID }
func (i FreeAgentPickItem) ToTeam() uuid.UUID       { return i.ToTeamID }

// TradeProposal is a three-phase exchange of asset bundles between two teams.
type TradeProposal struct {
	ID              uuid.UUID   `json:"id"`
	Season          int         `json:"season"`
	ProposingTeamID uuid.UUID   `json:"proposing_team_id"`
	TargetTeamID    uuid.UUID   `json:"target_team_id"`
	Status          TradeStatus `json:"status"`
	Items           []TradeItem `json:"items"`
	// Drop players declared to keep each side under the roster cap post-trade.
	ProposingDrops []uuid.UUID `json:"proposing_drops,omitempty"`
	TargetDrops    []uuid.UUID `json:"target_drops,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
