package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/domain/trace"
)

// MockTraceRepository mocks trace.Repository
type MockTraceRepository struct {
	mock.Mock
}

func (m *MockTraceRepository) Create(ctx context.Context, entry *trace.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTraceRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*trace.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trace.Entry), args.Error(1)
}

func (m *MockTraceRepository) GetByRecordID(ctx context.Context, kind, recordID string, limit, offset int) ([]*trace.Entry, error) {
	args := m.Called(ctx, kind, recordID, limit, offset)
	return args.Get(0).([]*trace.Entry), args.Error(1)
}

func (m *MockTraceRepository) CountByRecordID(ctx context.Context, kind, recordID string) (int64, error) {
	args := m.Called(ctx, kind, recordID)
	return args.Get(0).(int64), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestMessage() *outbox.Message {
	return &outbox.Message{
		ID:            uuid.New(),
		Event:         outbox.EventRecordCreated,
		Kind:          "riceBatches",
		RecordID:      "batch-1",
		CorrelationID: "corr-1",
		Payload:       json.RawMessage(`{"id":"batch-1","batchName":"B1"}`),
		CreatedAt:     time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestRecordingService_RecordEvent(t *testing.T) {
	recordedAt := time.Date(2025, 3, 1, 8, 0, 1, 0, time.UTC)

	t.Run("stores entry", func(t *testing.T) {
		repo := new(MockTraceRepository)
		svc := NewRecordingService(repo, newTestLogger())
		svc.now = func() time.Time { return recordedAt }
		msg := newTestMessage()

		repo.On("Create", mock.Anything, mock.MatchedBy(func(e *trace.Entry) bool {
			return e.EventID == msg.ID &&
				e.Event == "record.created" &&
				e.Kind == "riceBatches" &&
				e.RecordID == "batch-1" &&
				e.CorrelationID == "corr-1" &&
				e.Payload == `{"id":"batch-1","batchName":"B1"}` &&
				e.OccurredAt.Equal(msg.CreatedAt) &&
				e.RecordedAt.Equal(recordedAt)
		})).Return(nil).Once()

		require.NoError(t, svc.RecordEvent(context.Background(), msg))
		repo.AssertExpectations(t)
	})

	t.Run("duplicate is success", func(t *testing.T) {
		repo := new(MockTraceRepository)
		svc := NewRecordingService(repo, newTestLogger())
		msg := newTestMessage()

		repo.On("Create", mock.Anything, mock.Anything).Return(trace.ErrDuplicateEntry{EventID: msg.ID}).Once()

		assert.NoError(t, svc.RecordEvent(context.Background(), msg))
		repo.AssertExpectations(t)
	})

	t.Run("storage error is returned", func(t *testing.T) {
		repo := new(MockTraceRepository)
		svc := NewRecordingService(repo, newTestLogger())
		storeErr := errors.New("mongo unavailable")

		repo.On("Create", mock.Anything, mock.Anything).Return(storeErr).Once()

		err := svc.RecordEvent(context.Background(), newTestMessage())
		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestRecordingService_RejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *outbox.Message)
		want   string
	}{
		{"missing id", func(m *outbox.Message) { m.ID = uuid.Nil }, "missing event id"},
		{"unknown event", func(m *outbox.Message) { m.Event = "record.archived" }, "unknown event type"},
		{"unknown kind", func(m *outbox.Message) { m.Kind = "warehouses" }, "unknown kind"},
		{"missing record id", func(m *outbox.Message) { m.RecordID = "" }, "missing record id"},
		{"missing payload", func(m *outbox.Message) { m.Payload = nil }, "missing payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTraceRepository)
			svc := NewRecordingService(repo, newTestLogger())
			msg := newTestMessage()
			tt.mutate(msg)

			err := svc.RecordEvent(context.Background(), msg)
			require.ErrorIs(t, err, ErrInvalidEvent)
			assert.Contains(t, err.Error(), tt.want)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}
