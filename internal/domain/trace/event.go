// Package trace models the audit trail of record events kept by the trace recorder.
package trace

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one stored record event.
type Entry struct {
	EventID       uuid.UUID `json:"event_id" bson:"event_id"`
	Event         string    `json:"event" bson:"event"`
	Kind          string    `json:"kind" bson:"kind"`
	RecordID      string    `json:"record_id" bson:"record_id"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Payload       string    `json:"payload" bson:"payload"` // record snapshot as JSON text
	OccurredAt    time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt    time.Time `json:"recorded_at" bson:"recorded_at"`
}
