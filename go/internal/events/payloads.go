package events

import "time"

// Event types published on the transaction stream.
const (
	TypeWaiverClaimApproved = "WaiverClaimApproved"
	TypeWaiverClaimRejected = "WaiverClaimRejected"
	TypeTradeProposed       = "TradeProposed"
	TypeTradeAccepted       = "TradeAccepted"
	TypeTradeRejected       = "TradeRejected"
	TypeTradeCompleted      = "TradeCompleted"
)

// WaiverClaimApprovedPayload is emitted when a claim wins its player.
type WaiverClaimApprovedPayload struct {
	ClaimID          string    `json:"claim_id"`
	TeamID           string    `json:"team_id"`
	PickupPlayerID   string    `json:"pickup_player_id"`
	DropPlayerID     string    `json:"drop_player_id,omitempty"`
	Round            int       `json:"round"`
	Priority         int       `json:"priority"`
	TransactionID    string    `json:"transaction_id"`
	RejectedClaimIDs []string  `json:"rejected_claim_ids,omitempty"`
	ApprovedAt       time.Time `json:"approved_at"`
}

// WaiverClaimRejectedPayload is emitted for every claim that reaches the
// rejected state, including cascade rejections.
type WaiverClaimRejectedPayload struct {
	ClaimID        string    `json:"claim_id"`
	TeamID         string    `json:"team_id"`
	PickupPlayerID string    `json:"pickup_player_id"`
	Reason         string    `json:"reason"`
	RejectedAt     time.Time `json:"rejected_at"`
}

// TradeProposedPayload is emitted when a proposal is created.
type TradeProposedPayload struct {
	TradeID         string    `json:"trade_id"`
	ProposingTeamID string    `json:"proposing_team_id"`
	TargetTeamID    string    `json:"target_team_id"`
	ItemCount       int       `json:"item_count"`
	ProposedAt      time.Time `json:"proposed_at"`
}

// TradeAcceptedPayload is emitted when the target team accepts.
type TradeAcceptedPayload struct {
	TradeID    string    `json:"trade_id"`
	TeamID     string    `json:"team_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// TradeRejectedPayload is emitted when either side or an admin rejects.
type TradeRejectedPayload struct {
	TradeID    string    `json:"trade_id"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	RejectedAt time.Time `json:"rejected_at"`
}

// TradeCompletedPayload is emitted when an admin executes an accepted trade.
type TradeCompletedPayload struct {
	TradeID       string    `json:"trade_id"`
	TransactionID string    `json:"transaction_id"`
	ItemCount     int       `json:"item_count"`
	CompletedAt   time.Time `json:"completed_at"`
}
