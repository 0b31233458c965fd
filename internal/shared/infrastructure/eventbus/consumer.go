package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

// EventConsumer handles the routing keys it declares.
type EventConsumer interface {
	// EventTypes returns routing keys such as "subscriptions.subscription.delivery_failed".
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope that travels over every bus. Payload is the
// event body as serialized by the producing bounded context.
type ConsumedEvent struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   uuid.UUID            `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	EventType     string               `json:"event_type,omitempty"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Payload       json.RawMessage      `json:"payload"`
	Metadata      domain.EventMetadata `json:"metadata"`
}

// Encode renders the envelope for Publish.
func (e *ConsumedEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an envelope. fallbackKey fills in a missing routing key,
// e.g. the AMQP delivery's own key.
func DecodeEvent(body []byte, fallbackKey string) (*ConsumedEvent, error) {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, fmt.Errorf("failed to decode event envelope: %w", err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = fallbackKey
	}
	return event, nil
}

// Consumer pulls envelopes from a broker into a registry.
type Consumer interface {
	// Start blocks until ctx is cancelled or Close is called.
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}
