package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/domain/trace"
	"github.com/rice-supply-chain-api/internal/metrics"
)

type RecordingServiceImpl struct {
	repo   trace.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewRecordingService(repo trace.Repository, logger *slog.Logger) *RecordingServiceImpl {
	return &RecordingServiceImpl{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordEvent validates the event and inserts it. Redelivered events are detected through
// the unique event id and treated as already recorded.
func (s *RecordingServiceImpl) RecordEvent(ctx context.Context, message *outbox.Message) error {
	logger := s.logger
	if message.CorrelationID != "" {
		logger = s.logger.With("correlation_id", message.CorrelationID)
	}

	if err := validateMessage(message); err != nil {
		logger.Warn("Rejecting record event", "event_id", message.ID.String(), "error", err)
		metrics.RecordTraceEvent("rejected")
		return err
	}

	entry := &trace.Entry{
		EventID:       message.ID,
		Event:         string(message.Event),
		Kind:          message.Kind,
		RecordID:      message.RecordID,
		CorrelationID: message.CorrelationID,
		Payload:       string(message.Payload),
		OccurredAt:    message.CreatedAt,
		RecordedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, trace.ErrDuplicateEntry{EventID: message.ID}) {
			logger.Info("Record event already recorded, skipping", "event_id", message.ID.String())
			metrics.RecordTraceEvent("duplicate")
			return nil
		}
		logger.Error("Failed to store record event", "event_id", message.ID.String(), "error", err)
		metrics.RecordTraceEvent("failed")
		return fmt.Errorf("storing record event %s: %w", message.ID, err)
	}

	metrics.RecordTraceEvent("recorded")
	logger.Info("Recorded record event",
		"event_id", message.ID.String(),
		"event", message.Event,
		"kind", message.Kind,
		"record_id", message.RecordID,
	)
	return nil
}

func validateMessage(message *outbox.Message) error {
	if message.ID == uuid.Nil {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	switch message.Event {
	case outbox.EventRecordCreated, outbox.EventRecordUpdated, outbox.EventRecordDeleted:
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, message.Event)
	}
	if _, ok := supplychain.KindByName(message.Kind); !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, message.Kind)
	}
	if message.RecordID == "" {
		return fmt.Errorf("%w: missing record id", ErrInvalidEvent)
	}
	if len(message.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidEvent)
	}
	return nil
}
