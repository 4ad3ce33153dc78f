package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/platform/messaging/producers"
	"github.com/rice-supply-chain-api/internal/trace_recorder/service"
)

// RecordEventHandler handles record events consumed from Kafka
type RecordEventHandler struct {
	recordingService service.RecordingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

func NewRecordEventHandler(
	logger *slog.Logger,
	recordingService service.RecordingService,
	producer producers.DeadLetterPublisher,
) *RecordEventHandler {
	return &RecordEventHandler{
		recordingService: recordingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage decodes and records one event. Events that can never be recorded go to
// the DLQ when it is available; other failures are returned so the offset is not committed.
func (h *RecordEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var message outbox.Message
	if err := json.Unmarshal(value, &message); err != nil {
		h.logger.Error("Failed to unmarshal record event", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, fmt.Sprintf("undecodable record event: %s", err), err)
	}

	logger := h.logger
	if message.CorrelationID != "" {
		logger = h.logger.With("correlation_id", message.CorrelationID)
	}
	logger.Debug("Received record event",
		"event_id", message.ID.String(),
		"event", message.Event,
		"kind", message.Kind,
		"record_id", message.RecordID,
	)

	if err := h.recordingService.RecordEvent(ctx, &message); err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			return h.deadLetter(ctx, key, value, err.Error(), err)
		}
		return fmt.Errorf("recording event %s failed: %w", message.ID, err)
	}
	return nil
}

// deadLetter returns nil once the message is parked, and cause when it could not be.
func (h *RecordEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.producer == nil {
		return cause
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish record event to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return cause
	}
	h.logger.Info("Published unprocessable record event to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
