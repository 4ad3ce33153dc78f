// Package store keeps the authoritative in-process collection of one record kind.
// Every mutation is serialized by the store mutex and followed by a snapshot write
// through the configured record.SnapshotRepository.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/metrics"
)

// Store holds the records of one kind in insertion order with an id index.
type Store struct {
	kind      string
	snapshots record.SnapshotRepository
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	records []*record.Record
	index   map[string]int
}

// NewStore creates an empty store. snapshots may be nil for memory-only operation.
func NewStore(kind string, snapshots record.SnapshotRepository, logger *slog.Logger) *Store {
	return &Store{
		kind:      kind,
		snapshots: snapshots,
		logger:    logger.With("component", "record_store", "kind", kind),
		now:       func() time.Time { return time.Now().UTC() },
		index:     make(map[string]int),
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Kind returns the collection name.
func (s *Store) Kind() string {
	return s.kind
}

// Restore loads the snapshot once at startup. A failed load leaves the store empty and
// memory-only until the next successful save.
func (s *Store) Restore(ctx context.Context) int {
	if s.snapshots == nil {
		return 0
	}

	loaded, err := s.snapshots.Load(ctx, s.kind)
	if err != nil {
		s.logger.Error("Failed to restore snapshot, starting empty", "error", err)
		metrics.RecordSnapshotFailure(s.kind, "load")
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
	s.index = make(map[string]int, len(loaded))
	for _, rec := range loaded {
		if _, dup := s.index[rec.ID]; dup {
			s.logger.Warn("Skipping duplicate record in snapshot", "id", rec.ID)
			continue
		}
		s.index[rec.ID] = len(s.records)
		s.records = append(s.records, rec)
	}

	s.logger.Info("Snapshot restored", "count", len(s.records))
	return len(s.records)
}

// Insert appends a record that already carries its id and timestamps.
func (s *Store) Insert(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("inserting %s record: empty id", s.kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[rec.ID]; exists {
		return nil, record.ErrDuplicateRecord{Kind: s.kind, ID: rec.ID}
	}

	stored := rec.Clone()
	s.index[stored.ID] = len(s.records)
	s.records = append(s.records, stored)
	s.persist(ctx)

	return stored.Clone(), nil
}

// FindByID returns a copy of the record with the given id.
func (s *Store) FindByID(id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, record.ErrRecordNotFound{Kind: s.kind, Field: record.KeyID, Value: id}
	}
	return s.records[pos].Clone(), nil
}

// FindByField returns the first record, in insertion order, whose field equals value.
func (s *Store) FindByField(field, value string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		v, ok := rec.Get(field)
		if ok && v != nil && fmt.Sprint(v) == value {
			return rec.Clone(), nil
		}
	}
	return nil, record.ErrRecordNotFound{Kind: s.kind, Field: field, Value: value}
}

// Update shallow-merges patch over the record. Keys missing from patch keep their value,
// explicit nulls overwrite. Server-managed keys are ignored except a boolean isActive.
func (s *Store) Update(ctx context.Context, id string, patch map[string]any) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, record.ErrRecordNotFound{Kind: s.kind, Field: record.KeyID, Value: id}
	}

	updated := s.records[pos].Clone()
	for k, v := range patch {
		if k == record.KeyIsActive {
			if active, isBool := v.(bool); isBool {
				updated.IsActive = active
			}
			continue
		}
		if record.IsReserved(k) {
			continue
		}
		updated.Fields[k] = v
	}
	updated.UpdatedAt = s.nextTimestamp(updated.UpdatedAt)

	s.records[pos] = updated
	s.persist(ctx)

	return updated.Clone(), nil
}

// SoftDelete marks the record inactive. Deleting an inactive record succeeds again.
func (s *Store) SoftDelete(ctx context.Context, id string) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, record.ErrRecordNotFound{Kind: s.kind, Field: record.KeyID, Value: id}
	}

	updated := s.records[pos].Clone()
	updated.IsActive = false
	updated.UpdatedAt = s.nextTimestamp(updated.UpdatedAt)

	s.records[pos] = updated
	s.persist(ctx)

	return updated.Clone(), nil
}

// SetBlockchainTx records the proof-of-interaction signature. It does not count as a
// user mutation, so updatedAt is left alone.
func (s *Store) SetBlockchainTx(ctx context.Context, id, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return record.ErrRecordNotFound{Kind: s.kind, Field: record.KeyID, Value: id}
	}

	updated := s.records[pos].Clone()
	updated.BlockchainTx = signature
	s.records[pos] = updated
	s.persist(ctx)

	return nil
}

// List returns copies of all records in insertion order.
func (s *Store) List() []*record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*record.Record, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of records, inactive ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// nextTimestamp returns now, nudged forward when the clock has not moved past prev.
func (s *Store) nextTimestamp(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// persist writes the collection while the caller holds the write lock. Failures are
// logged and counted; the in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	if err := s.snapshots.Save(context.WithoutCancel(ctx), s.kind, s.records); err != nil {
		s.logger.Error("Failed to save snapshot", "error", err, "count", len(s.records))
		metrics.RecordSnapshotFailure(s.kind, "save")
		return
	}
	s.logger.Debug("Snapshot saved", "count", len(s.records))
}
