package service

import (
	"context"
	"errors"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
)

// ErrInvalidEvent marks an event that can never be recorded. The consumer parks such
// events in the DLQ instead of retrying them.
var ErrInvalidEvent = errors.New("invalid record event")

// RecordingService stores record events in the audit trail.
type RecordingService interface {
	RecordEvent(ctx context.Context, message *outbox.Message) error
}
