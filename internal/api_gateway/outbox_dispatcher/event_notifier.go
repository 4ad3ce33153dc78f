package outbox_dispatcher

import (
	"context"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/platform/messaging/producers"
)

// EventNotifier publishes every outbox message as a record event keyed by record id.
type EventNotifier struct {
	publisher producers.EventPublisher
}

func NewEventNotifier(publisher producers.EventPublisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) Name() string {
	return "kafka_record_events"
}

func (n *EventNotifier) Notify(ctx context.Context, message *outbox.Message) error {
	return n.publisher.Publish(ctx, message.RecordID, message)
}
