package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rice-supply-chain-api/internal/domain/record"
)

const (
	// SnapshotCollectionName holds the records of every kind, keyed by kind and id
	SnapshotCollectionName = "record_snapshots"
)

// snapshotDocument wraps a record with its collection position. The record itself is
// stored as a nested document so it stays queryable from the mongo shell.
type snapshotDocument struct {
	ID       string   `bson:"_id"`
	Kind     string   `bson:"kind"`
	Position int32    `bson:"position"`
	Record   bson.Raw `bson:"record"`
}

// SnapshotRepository implements record.SnapshotRepository for MongoDB
type SnapshotRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSnapshotRepository creates a new MongoDB snapshot repository
func NewSnapshotRepository(logger *slog.Logger, db *mongo.Database) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the (kind, position) index used by Load.
func (r *SnapshotRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(SnapshotCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}, {Key: "position", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot index: %w", err)
	}
	return nil
}

// Load returns the records of kind sorted by position.
func (r *SnapshotRepository) Load(ctx context.Context, kind string) ([]*record.Record, error) {
	collection := r.db.Collection(SnapshotCollectionName)

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		r.logger.Error("Failed to query record snapshots", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to query %s snapshot: %w", kind, err)
	}
	defer cursor.Close(ctx)

	var docs []snapshotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}

	records := make([]*record.Record, 0, len(docs))
	for _, doc := range docs {
		body, err := bson.MarshalExtJSON(doc.Record, false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s document %s: %w", kind, doc.ID, err)
		}
		rec := &record.Record{}
		if err := rec.UnmarshalJSON(body); err != nil {
			return nil, fmt.Errorf("failed to decode %s document %s: %w", kind, doc.ID, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// Save upserts every record of kind. Records are never removed from a store, so the
// upserted set always equals the collection.
func (r *SnapshotRepository) Save(ctx context.Context, kind string, records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for i, rec := range records {
		body, err := rec.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode %s record %s: %w", kind, rec.ID, err)
		}
		var nested bson.Raw
		if err := bson.UnmarshalExtJSON(body, false, &nested); err != nil {
			return fmt.Errorf("failed to convert %s record %s: %w", kind, rec.ID, err)
		}

		doc := snapshotDocument{
			ID:       documentID(kind, rec.ID),
			Kind:     kind,
			Position: int32(i),
			Record:   nested,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := r.db.Collection(SnapshotCollectionName).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		r.logger.Error("Failed to save record snapshot", "kind", kind, "count", len(records), "error", err)
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}

	return nil
}

func documentID(kind, id string) string {
	return kind + "/" + id
}

var _ record.SnapshotRepository = (*SnapshotRepository)(nil)
