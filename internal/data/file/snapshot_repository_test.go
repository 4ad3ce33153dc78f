package file

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rice-supply-chain-api/internal/domain/record"
)

func newTestRepository(t *testing.T) (*SnapshotRepository, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	repo, err := NewSnapshotRepository(logger, fsys, "data")
	require.NoError(t, err)
	return repo, fsys
}

func TestSnapshotRepository_LoadMissingFile(t *testing.T) {
	repo, _ := newTestRepository(t)

	records, err := repo.Load(context.Background(), "chainActors")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSnapshotRepository_LoadBlankFile(t *testing.T) {
	repo, fsys := newTestRepository(t)
	require.NoError(t, afero.WriteFile(fsys, "data/milledRice.json", []byte("  \n"), 0o644))

	records, err := repo.Load(context.Background(), "milledRice")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSnapshotRepository_SaveThenLoad(t *testing.T) {
	repo, fsys := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	first := record.New("id-1", map[string]any{"name": "Juan", "balance": json.Number("12.5")}, now)
	second := record.New("id-2", map[string]any{"name": "Maria"}, now.Add(time.Minute))
	second.IsActive = false
	second.BlockchainTx = "sig"

	require.NoError(t, repo.Save(ctx, "chainActors", []*record.Record{first, second}))

	exists, err := afero.Exists(fsys, "data/chainActors.json")
	require.NoError(t, err)
	assert.True(t, exists)
	tmpExists, _ := afero.Exists(fsys, "data/chainActors.json.tmp")
	assert.False(t, tmpExists)

	loaded, err := repo.Load(ctx, "chainActors")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "id-1", loaded[0].ID)
	assert.Equal(t, "Juan", loaded[0].Fields["name"])
	assert.Equal(t, json.Number("12.5"), loaded[0].Fields["balance"])
	assert.True(t, loaded[0].IsActive)
	assert.True(t, now.Equal(loaded[0].CreatedAt))

	assert.Equal(t, "id-2", loaded[1].ID)
	assert.False(t, loaded[1].IsActive)
	assert.Equal(t, "sig", loaded[1].BlockchainTx)
}

func TestSnapshotRepository_SaveEmptyWritesArray(t *testing.T) {
	repo, fsys := newTestRepository(t)

	require.NoError(t, repo.Save(context.Background(), "riceBatches", nil))

	data, err := afero.ReadFile(fsys, "data/riceBatches.json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestSnapshotRepository_LoadLegacyPublicKey(t *testing.T) {
	repo, fsys := newTestRepository(t)
	legacy := `[{"publicKey":"abc","name":"Old","createdAt":"2024-01-01T00:00:00.000Z","updatedAt":"2024-01-02T00:00:00.000Z"}]`
	require.NoError(t, afero.WriteFile(fsys, "data/chainActors.json", []byte(legacy), 0o644))

	loaded, err := repo.Load(context.Background(), "chainActors")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "abc", loaded[0].ID)
	assert.True(t, loaded[0].IsActive)
}

func TestSnapshotRepository_LoadCorruptFile(t *testing.T) {
	repo, fsys := newTestRepository(t)
	require.NoError(t, afero.WriteFile(fsys, "data/chainActors.json", []byte("{not json"), 0o644))

	_, err := repo.Load(context.Background(), "chainActors")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode snapshot")
}

func TestSnapshotRepository_SaveOnReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("data", 0o755))
	repo := &SnapshotRepository{
		fs:     afero.NewReadOnlyFs(base),
		dir:    "data",
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	err := repo.Save(context.Background(), "chainActors", []*record.Record{record.New("x", nil, time.Now())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write snapshot")
}

func TestOpenSnapshots(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("creates the data directory", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		repo := OpenSnapshots(logger, fsys, "data/records")
		require.NotNil(t, repo)

		exists, err := afero.DirExists(fsys, "data/records")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unwritable directory degrades to memory only", func(t *testing.T) {
		fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())

		var repo record.SnapshotRepository
		assert.NotPanics(t, func() { repo = OpenSnapshots(logger, fsys, "data") })
		assert.Nil(t, repo)
	})
}
