package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rice-supply-chain-api/internal/domain/trace"
)

const (
	// TraceCollectionName is the name of the record event collection in MongoDB
	TraceCollectionName = "record_events"
)

// TraceRepository implements the trace.Repository interface for MongoDB
type TraceRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTraceRepository creates a new MongoDB trace repository
func NewTraceRepository(logger *slog.Logger, db *mongo.Database) *TraceRepository {
	return &TraceRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique event id index and the per-record lookup index.
func (r *TraceRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(TraceCollectionName)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "kind", Value: 1}, {Key: "record_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create record event indexes: %w", err)
	}
	return nil
}

// Create stores a record event. Returns ErrDuplicateEntry when the event id was
// already recorded.
func (r *TraceRepository) Create(ctx context.Context, entry *trace.Entry) error {
	_, err := r.db.Collection(TraceCollectionName).InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return trace.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to create trace entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create trace entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves a trace entry by its event ID.
// Returns ErrEntryNotFound if no entry exists for the given event.
func (r *TraceRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*trace.Entry, error) {
	collection := r.db.Collection(TraceCollectionName)

	var entry trace.Entry
	err := collection.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trace.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get trace entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get trace entry: %w", err)
	}

	return &entry, nil
}

// GetByRecordID retrieves paginated events for one record, newest first.
func (r *TraceRepository) GetByRecordID(ctx context.Context, kind, recordID string, limit, offset int) ([]*trace.Entry, error) {
	collection := r.db.Collection(TraceCollectionName)

	filter := bson.M{"kind": kind, "record_id": recordID}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get trace entries",
			"kind", kind,
			"record_id", recordID,
			"error", err)
		return nil, fmt.Errorf("failed to get trace entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*trace.Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode trace entries: %w", err)
	}

	return entries, nil
}

// CountByRecordID counts the events stored for one record
func (r *TraceRepository) CountByRecordID(ctx context.Context, kind, recordID string) (int64, error) {
	count, err := r.db.Collection(TraceCollectionName).CountDocuments(ctx, bson.M{"kind": kind, "record_id": recordID})
	if err != nil {
		r.logger.Error("Failed to count trace entries",
			"kind", kind,
			"record_id", recordID,
			"error", err)
		return 0, fmt.Errorf("failed to count trace entries: %w", err)
	}

	return count, nil
}

var _ trace.Repository = (*TraceRepository)(nil)
