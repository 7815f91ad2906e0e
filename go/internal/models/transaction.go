package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionType identifies which path produced a ledger record.
type TransactionType string

const (
	TransactionTypeWaiver TransactionType = "WAIVER"
	TransactionTypeTrade  TransactionType = "TRADE"
)

// TransactionDirection marks an item as gained or lost by its team.
type TransactionDirection string

const (
	TransactionAcquired TransactionDirection = "ACQUIRED"
	TransactionLost     TransactionDirection = "LOST"
)

// TransactionRecord is an immutable ledger entry for one completed ownership
// change. Write-once; never mutated after creation.
type TransactionRecord struct {
	ID        uuid.UUID         `json:"id"`
	Type      TransactionType   `json:"type"`
	Season    int               `json:"season"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []TransactionItem `json:"items"`
}

// TransactionItem is one asset movement within a record. Detail carries
// type-specific audit data (waiver round/priority, roster snapshots,
// pick seasons) as raw JSON.
type TransactionItem struct {
	ID        uuid.UUID            `json:"id"`
	RecordID  uuid.UUID            `json:"record_id"`
	TeamID    uuid.UUID            `json:"team_id"`
	Direction TransactionDirection `json:"direction"`
	AssetType TradeItemType        `json:"asset_type"`
	PlayerID  *uuid.UUID           `json:"player_id,omitempty"`
	Detail    json.RawMessage      `json:"detail,omitempty"`
}
