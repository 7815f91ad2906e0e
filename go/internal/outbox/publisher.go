package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// EventPublisher delivers an outbox event to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// envelope is the wire format published on the bus.
type envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Aggregate string          `json:"aggregate_id"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSPublisher publishes events to a NATS JetStream stream.
type NATSPublisher struct {
	js            jetstream.JetStream
	subjectPrefix string
}

// NewNATSPublisher connects to NATS and ensures the transaction stream exists.
func NewNATSPublisher(ctx context.Context, url, streamName, subjectPrefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &NATSPublisher{js: js, subjectPrefix: subjectPrefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, event.EventType)

	body, err := json.Marshal(envelope{
		EventID:   event.ID.String(),
		EventType: event.EventType,
		Aggregate: event.AggregateID.String(),
		Timestamp: event.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Payload:   event.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Dedup on event id so retried batches do not double-publish.
	_, err = p.js.Publish(ctx, subject, body, jetstream.WithMsgID(event.ID.String()))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// LogPublisher is a bus-less publisher for development and tests.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID.String()).
		Msg("publishing event")
	return nil
}
