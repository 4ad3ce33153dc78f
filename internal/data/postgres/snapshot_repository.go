// Package postgres provides the PostgreSQL snapshot backend. Every kind shares the
// record_snapshots table; a save replaces all rows of one kind inside a transaction.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/platform/persistence"
)

const (
	deleteSnapshotQuery = `DELETE FROM record_snapshots WHERE kind = $1`
	selectSnapshotQuery = `
		SELECT body
		FROM record_snapshots
		WHERE kind = $1
		ORDER BY position ASC
	`
)

var (
	snapshotTable   = pgx.Identifier{"record_snapshots"}
	snapshotColumns = []string{"kind", "id", "position", "body", "updated_at"}
)

// SnapshotRepository implements record.SnapshotRepository for PostgreSQL
type SnapshotRepository struct {
	db     persistence.TxStarter // *pgxpool.Pool in production
	logger *slog.Logger
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository.
func NewSnapshotRepository(logger *slog.Logger, db *persistence.PostgresDB) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db.Pool(),
		logger: logger,
	}
}

// Load reads the rows of one kind in their saved order.
func (r *SnapshotRepository) Load(ctx context.Context, kind string) ([]*record.Record, error) {
	rows, err := r.db.Query(ctx, selectSnapshotQuery, kind)
	if err != nil {
		r.logger.Error("Failed to query record snapshots", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to query %s snapshot: %w", kind, err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s snapshot row: %w", kind, err)
		}
		rec := &record.Record{}
		if err := json.Unmarshal(body, rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s snapshot row: %w", kind, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s snapshot rows: %w", kind, err)
	}

	return records, nil
}

// Save replaces the stored rows of kind with records using COPY.
func (r *SnapshotRepository) Save(ctx context.Context, kind string, records []*record.Record) error {
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s record %s: %w", kind, rec.ID, err)
		}
		rows = append(rows, []any{kind, rec.ID, int32(i), body, rec.UpdatedAt})
	}

	err := persistence.ExecuteTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteSnapshotQuery, kind); err != nil {
			return fmt.Errorf("failed to clear %s snapshot: %w", kind, err)
		}
		if len(rows) == 0 {
			return nil
		}

		copied, err := tx.CopyFrom(ctx, snapshotTable, snapshotColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy %s snapshot: %w", kind, err)
		}
		if copied != int64(len(rows)) {
			return fmt.Errorf("copied %d of %d %s records", copied, len(rows), kind)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save record snapshot", "kind", kind, "count", len(records), "error", err)
		return err
	}

	return nil
}

var _ record.SnapshotRepository = (*SnapshotRepository)(nil)
