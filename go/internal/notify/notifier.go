package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// SubjectPrefix is the per-team notification subject root. Owner-facing
// clients subscribe to league.notify.<team_id>.
const SubjectPrefix = "league.notify"

// Message is the wire shape of one owner notification.
type Message struct {
	TeamID  string    `json:"team_id"`
	Event   string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// NATSNotifier publishes owner notifications on core NATS. Delivery is
// best-effort; callers run it behind the side-effect dispatcher.
type NATSNotifier struct {
	conn *nats.Conn
}

func NewNATSNotifier(conn *nats.Conn) *NATSNotifier {
	return &NATSNotifier{conn: conn}
}

func (n *NATSNotifier) Notify(_ context.Context, teamID uuid.UUID, event string, payload any) error {
	msg := Message{
		TeamID:  teamID.String(),
		Event:   event,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", SubjectPrefix, teamID)
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used in development and as a
// fallback when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, teamID uuid.UUID, event string, payload any) error {
	log.Info().
		Str("team_id", teamID.String()).
		Str("event", event).
		Any("payload", payload).
		Msg("owner notification")
	return nil
}
