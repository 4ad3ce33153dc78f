package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher sends a record event to the record events topic. key is the record id,
// so every event of one record lands on the same partition in order.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// DeadLetterPublisher parks a consumed record event the trace recorder cannot store,
// together with the reason.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error
}

// topicWriter is the part of *kafka.Writer both producers use; tests replace it.
type topicWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ topicWriter         = (*kafka.Writer)(nil)
	_ EventPublisher      = (*RecordEventProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
)
