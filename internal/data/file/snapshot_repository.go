package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/metrics"
)

// SnapshotRepository stores each kind as a pretty-printed JSON array in <dir>/<kind>.json.
type SnapshotRepository struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewSnapshotRepository creates the data directory when it does not exist yet.
func NewSnapshotRepository(logger *slog.Logger, fsys afero.Fs, dir string) (*SnapshotRepository, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &SnapshotRepository{
		fs:     fsys,
		dir:    dir,
		logger: logger.With("component", "file_snapshots"),
	}, nil
}

// OpenSnapshots returns the file repository for dir, or nil when the data directory
// cannot be created. A nil repository leaves the record stores memory-only.
func OpenSnapshots(logger *slog.Logger, fsys afero.Fs, dir string) record.SnapshotRepository {
	repo, err := NewSnapshotRepository(logger, fsys, dir)
	if err != nil {
		logger.Warn("File snapshots unavailable, records are kept in memory only", "dir", dir, "error", err)
		metrics.RecordSnapshotFailure("all", "open")
		return nil
	}
	return repo
}

func (r *SnapshotRepository) path(kind string) string {
	return filepath.Join(r.dir, kind+".json")
}

// Load returns an empty collection when the file is missing or blank.
func (r *SnapshotRepository) Load(_ context.Context, kind string) ([]*record.Record, error) {
	data, err := afero.ReadFile(r.fs, r.path(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Info("No snapshot file yet", "kind", kind)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", r.path(kind), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []*record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", r.path(kind), err)
	}
	return records, nil
}

// Save writes to a temporary file and renames it over the snapshot.
func (r *SnapshotRepository) Save(_ context.Context, kind string, records []*record.Record) error {
	if records == nil {
		records = []*record.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}

	target := r.path(kind)
	tmp := target + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", tmp, err)
	}
	if err := r.fs.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", target, err)
	}
	return nil
}

var _ record.SnapshotRepository = (*SnapshotRepository)(nil)
