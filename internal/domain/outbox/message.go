package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rice-supply-chain-api/internal/domain/record"
)

// EventType names the record mutation a message announces.
type EventType string

const (
	EventRecordCreated EventType = "record.created"
	EventRecordUpdated EventType = "record.updated"
	EventRecordDeleted EventType = "record.deleted"
)

// Message carries a record snapshot from the API to the asynchronous notifiers. The same
// JSON shape is published to Kafka as the record event.
type Message struct {
	ID            uuid.UUID       `json:"id"`
	Event         EventType       `json:"event"`
	Kind          string          `json:"kind"`
	RecordID      string          `json:"record_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Attempts      int             `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"-"`
}

func NewMessage(event EventType, kind string, rec *record.Record, correlationID string) (*Message, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:            uuid.New(),
		Event:         event,
		Kind:          kind,
		RecordID:      rec.ID,
		CorrelationID: correlationID,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

// GetRecord decodes the record snapshot from the payload
func (m *Message) GetRecord() (*record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(m.Payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
