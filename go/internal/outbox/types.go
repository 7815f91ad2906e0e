package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one row of the transactional outbox. Rows are inserted inside the
// same transaction as the domain mutation they describe and published to the
// bus by the worker after commit.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
}
