// Package app holds the application state shared by the gateway components: one record
// store per supply chain kind, restored from the configured snapshot backend.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/domain/supplychain"
	"github.com/rice-supply-chain-api/internal/store"
)

// Registry owns the record stores. It is built once in main and handed to the
// services and the outbox notifiers.
type Registry struct {
	logger *slog.Logger
	kinds  []supplychain.Kind
	stores map[string]*store.Store
}

// NewRegistry creates an empty store for every kind. snapshots may be nil for a
// memory-only gateway.
func NewRegistry(logger *slog.Logger, snapshots record.SnapshotRepository) *Registry {
	kinds := supplychain.Kinds()
	stores := make(map[string]*store.Store, len(kinds))
	for _, kind := range kinds {
		stores[kind.Name] = store.NewStore(kind.Name, snapshots, logger)
	}

	return &Registry{
		logger: logger.With("component", "registry"),
		kinds:  kinds,
		stores: stores,
	}
}

// Restore loads every snapshot and returns the number of records restored
func (r *Registry) Restore(ctx context.Context) int {
	total := 0
	for _, kind := range r.kinds {
		total += r.stores[kind.Name].Restore(ctx)
	}
	r.logger.Info("Record stores restored", "records", total)
	return total
}

func (r *Registry) Kinds() []supplychain.Kind {
	return r.kinds
}

// Store returns the store of the named kind
func (r *Registry) Store(kind string) (*store.Store, error) {
	s, ok := r.stores[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return s, nil
}

// RecordServices builds one service per kind in routing order. outbox may be nil.
func (r *Registry) RecordServices(ids service.IDGenerator, outbox service.OutboxEnqueuer, logger *slog.Logger) []service.RecordService {
	services := make([]service.RecordService, 0, len(r.kinds))
	for _, kind := range r.kinds {
		services = append(services, service.NewRecordService(kind, r.stores[kind.Name], ids, outbox, logger))
	}
	return services
}

// SetBlockchainTx stores the proof transaction signature on a record
func (r *Registry) SetBlockchainTx(ctx context.Context, kind, id, signature string) error {
	s, err := r.Store(kind)
	if err != nil {
		return err
	}
	return s.SetBlockchainTx(ctx, id, signature)
}
