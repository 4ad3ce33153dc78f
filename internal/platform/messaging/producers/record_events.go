package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/rice-supply-chain-api/internal/config"
)

// RecordEventProducer publishes record lifecycle events keyed by record id, so every
// event of one record lands on the same partition.
type RecordEventProducer struct {
	logger *slog.Logger
	writer topicWriter
	topic  string
}

// NewRecordEventProducer ensures the record events topic exists and returns a synchronous producer.
func NewRecordEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RecordEventProducer, error) {
	if cfg.RecordEventsTopic == "" {
		return nil, fmt.Errorf("kafka record events topic is not configured")
	}

	conn, err := dialFirst(cfg.BrokerList())
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for record event producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, cfg.RecordEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure record events topic %s exists: %w", cfg.RecordEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        cfg.RecordEventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return newRecordEventProducer(logger, writer, cfg.RecordEventsTopic), nil
}

func newRecordEventProducer(logger *slog.Logger, writer topicWriter, topic string) *RecordEventProducer {
	return &RecordEventProducer{
		logger: logger.With("component", "record_event_producer"),
		writer: writer,
		topic:  topic,
	}
}

func (p *RecordEventProducer) Publish(ctx context.Context, key string, value any) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal record event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish record event", "topic", p.topic, "key", key, "error", err)
		return fmt.Errorf("failed to publish record event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published record event", "topic", p.topic, "key", key)
	return nil
}

func (p *RecordEventProducer) Close() error {
	p.logger.Info("Closing record event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
