package outbox

import (
	"context"
	"fmt"
)

// Notifier delivers one outbox message to an external system.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, message *Message) error
}

// ErrQueueFull indicates the dispatcher dropped a message because its buffer was full.
type ErrQueueFull struct {
	MessageID string
}

func (e ErrQueueFull) Error() string {
	return fmt.Sprintf("outbox queue full, dropped message %s", e.MessageID)
}

// ErrDispatcherClosed indicates an enqueue after shutdown started.
type ErrDispatcherClosed struct{}

func (ErrDispatcherClosed) Error() string {
	return "outbox dispatcher is closed"
}

// ErrPermanent marks a notifier failure that retrying cannot fix.
type ErrPermanent struct {
	Err error
}

func (e ErrPermanent) Error() string {
	return "permanent delivery failure: " + e.Err.Error()
}

func (e ErrPermanent) Unwrap() error {
	return e.Err
}
