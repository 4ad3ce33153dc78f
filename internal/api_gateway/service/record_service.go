package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/logger"
	"github.com/rice-supply-chain-api/internal/pagination"
)

// RecordServiceImpl implements RecordService for the kind it is configured with
type RecordServiceImpl struct {
	kind   supplychain.Kind
	store  RecordStore
	ids    IDGenerator
	outbox OutboxEnqueuer
	logger *slog.Logger
	now    func() time.Time
}

// NewRecordService creates the service for one kind. outbox may be nil.
func NewRecordService(
	kind supplychain.Kind,
	store RecordStore,
	ids IDGenerator,
	outbox OutboxEnqueuer,
	logger *slog.Logger,
) *RecordServiceImpl {
	return &RecordServiceImpl{
		kind:   kind,
		store:  store,
		ids:    ids,
		outbox: outbox,
		logger: logger.With("component", "record_service", "kind", kind.Name),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecordServiceImpl) Kind() supplychain.Kind {
	return s.kind
}

func (s *RecordServiceImpl) List(_ context.Context, params pagination.Params) pagination.Page[*record.Record] {
	return pagination.Paginate(s.store.List(), params)
}

func (s *RecordServiceImpl) Get(_ context.Context, id string) (*record.Record, error) {
	return s.store.FindByID(id)
}

func (s *RecordServiceImpl) GetByAlternateKey(_ context.Context, value string) (*record.Record, error) {
	if s.kind.AlternateKey == "" {
		return nil, fmt.Errorf("%s has no alternate key", s.kind.Name)
	}
	return s.store.FindByField(s.kind.AlternateKey, value)
}

// Create runs the create schema, assigns identity and timestamps, inserts and queues
// the record.created event.
func (s *RecordServiceImpl) Create(ctx context.Context, payload map[string]any) (*record.Record, error) {
	if err := s.kind.Create.Validate(payload); err != nil {
		return nil, err
	}

	fields := s.kind.Defaults()
	for k, v := range payload {
		if s.kind.AcceptsOnCreate(k) {
			fields[k] = v
		}
	}

	id, err := s.ids.New()
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.kind.Name, err)
	}

	stored, err := s.store.Insert(ctx, record.New(id, fields, s.now()))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.kind.Name, err)
	}

	s.logger.Info("Record created", "id", stored.ID)
	s.notify(ctx, outbox.EventRecordCreated, stored)
	return stored, nil
}

// Update runs the update schema and merges the accepted fields.
func (s *RecordServiceImpl) Update(ctx context.Context, id string, payload map[string]any) (*record.Record, error) {
	if err := s.kind.Update.Validate(payload); err != nil {
		return nil, err
	}

	patch := s.acceptedFields(payload)
	if active, ok := payload[record.KeyIsActive].(bool); ok {
		patch[record.KeyIsActive] = active
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Record updated", "id", id, "fields", len(patch))
	s.notify(ctx, outbox.EventRecordUpdated, updated)
	return updated, nil
}

func (s *RecordServiceImpl) Delete(ctx context.Context, id string) (*record.Record, error) {
	deleted, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Record deactivated", "id", id)
	s.notify(ctx, outbox.EventRecordDeleted, deleted)
	return deleted, nil
}

// acceptedFields keeps the payload keys declared for the kind.
func (s *RecordServiceImpl) acceptedFields(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if s.kind.Accepts(k) {
			out[k] = v
		}
	}
	return out
}

// notify queues an event for the stored record. The store commit already happened, so
// a failure here is only logged.
func (s *RecordServiceImpl) notify(ctx context.Context, event outbox.EventType, rec *record.Record) {
	if s.outbox == nil {
		return
	}

	message, err := outbox.NewMessage(event, s.kind.Name, rec, logger.CorrelationID(ctx))
	if err != nil {
		s.logger.Error("Failed to build outbox message", "event", event, "id", rec.ID, "error", err)
		return
	}
	if err := s.outbox.Enqueue(message); err != nil {
		s.logger.Error("Failed to enqueue outbox message", "event", event, "id", rec.ID, "error", err)
	}
}
