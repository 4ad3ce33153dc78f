package service

import (
	"context"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/domain/trace"
	"github.com/rice-supply-chain-api/internal/pagination"
)

// RecordService defines the operations exposed for one record kind
type RecordService interface {
	Kind() supplychain.Kind

	// List returns one page of the collection in insertion order
	List(ctx context.Context, params pagination.Params) pagination.Page[*record.Record]

	// Get returns record.ErrRecordNotFound for an unknown id
	Get(ctx context.Context, id string) (*record.Record, error)

	// GetByAlternateKey looks up by the kind's alternate key (qrCode for rice batches)
	GetByAlternateKey(ctx context.Context, value string) (*record.Record, error)

	// Create validates the payload and stores a new record.
	// Returns validation.ValidationError when a rule is violated
	Create(ctx context.Context, payload map[string]any) (*record.Record, error)

	// Update merges the payload over an existing record
	Update(ctx context.Context, id string, payload map[string]any) (*record.Record, error)

	// Delete marks the record inactive
	Delete(ctx context.Context, id string) (*record.Record, error)
}

// HistoryService reads the audit trail written by the trace recorder
type HistoryService interface {
	// GetHistory returns the newest events first and the total event count
	GetHistory(ctx context.Context, kind, id string, params pagination.Params) ([]*trace.Entry, int64, error)
}

// RecordStore is the store a RecordService writes through
type RecordStore interface {
	Kind() string
	Insert(ctx context.Context, rec *record.Record) (*record.Record, error)
	FindByID(id string) (*record.Record, error)
	FindByField(field, value string) (*record.Record, error)
	Update(ctx context.Context, id string, patch map[string]any) (*record.Record, error)
	SoftDelete(ctx context.Context, id string) (*record.Record, error)
	List() []*record.Record
}

// IDGenerator issues identifiers for new records
type IDGenerator interface {
	New() (string, error)
}

// OutboxEnqueuer accepts record events for asynchronous delivery
type OutboxEnqueuer interface {
	Enqueue(message *outbox.Message) error
}
