package outbox_dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/rice-supply-chain-api/internal/config"
	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/metrics"
)

// Delivery outcomes reported to metrics.
const (
	statusDelivered = "delivered"
	statusFailed    = "failed"
	statusDropped   = "dropped"
)

// Dispatcher delivers outbox messages to every notifier after the HTTP response has been
// sent. Messages are buffered in a bounded channel and delivered on an ants pool; a full
// buffer drops the message instead of blocking the request.
type Dispatcher struct {
	notifiers       []outbox.Notifier
	queue           chan *outbox.Message
	pool            *ants.Pool
	logger          *slog.Logger
	deliveryTimeout time.Duration
	maxAttempts     int
	retryBackoff    time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	jobs    sync.WaitGroup
	done    chan struct{}
}

func NewDispatcher(
	cfg *config.OutboxConfig,
	poolSize int,
	logger *slog.Logger,
	notifiers ...outbox.Notifier,
) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		notifiers:       notifiers,
		queue:           make(chan *outbox.Message, cfg.QueueSize),
		pool:            pool,
		logger:          logger.With("component", "outbox_dispatcher"),
		deliveryTimeout: cfg.DeliveryTimeout,
		maxAttempts:     cfg.MaxAttempts,
		retryBackoff:    cfg.RetryBackoff,
		done:            make(chan struct{}),
	}, nil
}

// Enqueue hands a message to the dispatcher without blocking.
func (d *Dispatcher) Enqueue(message *outbox.Message) error {
	if len(d.notifiers) == 0 {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return outbox.ErrDispatcherClosed{}
	}

	select {
	case d.queue <- message:
		metrics.SetOutboxQueueDepth(len(d.queue))
		return nil
	default:
		metrics.RecordOutboxDelivery("all", statusDropped)
		d.logger.Warn("Outbox queue full, dropping message",
			"message_id", message.ID, "kind", message.Kind, "record_id", message.RecordID)
		return outbox.ErrQueueFull{MessageID: message.ID.String()}
	}
}

// Start launches the loop that consumes the queue until Shutdown closes it or ctx is
// canceled. It returns immediately.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	d.logger.Info("Starting Outbox Dispatcher",
		"notifiers", len(d.notifiers),
		"queue_size", cap(d.queue),
		"pool_size", d.pool.Cap(),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox Dispatcher stopping due to context cancellation.", "pending", len(d.queue))
			return
		case msg, ok := <-d.queue:
			if !ok {
				d.logger.Info("Outbox queue closed, dispatcher loop finished")
				return
			}
			metrics.SetOutboxQueueDepth(len(d.queue))
			d.submit(ctx, msg)
		}
	}
}

func (d *Dispatcher) submit(ctx context.Context, msg *outbox.Message) {
	d.jobs.Add(1)
	err := d.pool.Submit(func() {
		defer d.jobs.Done()
		d.deliver(context.WithoutCancel(ctx), msg)
	})
	if err != nil {
		d.jobs.Done()
		d.logger.Error("Failed to submit outbox message to worker pool", "message_id", msg.ID, "error", err)
		metrics.RecordOutboxDelivery("all", statusDropped)
	}
}

// deliver runs every notifier for one message. Notifier failures are retried and then
// logged; they never affect the stored record or other notifiers.
func (d *Dispatcher) deliver(ctx context.Context, msg *outbox.Message) {
	logger := d.logger.With("message_id", msg.ID, "event", msg.Event, "kind", msg.Kind, "record_id", msg.RecordID)
	if msg.CorrelationID != "" {
		logger = logger.With("correlation_id", msg.CorrelationID)
	}

	for _, notifier := range d.notifiers {
		err := d.notifyWithRetry(ctx, notifier, msg)
		if err != nil {
			logger.Error("Failed to deliver outbox message",
				"notifier", notifier.Name(), "attempts", msg.Attempts, "error", err)
			metrics.RecordOutboxDelivery(notifier.Name(), statusFailed)
			continue
		}
		logger.Debug("Outbox message delivered", "notifier", notifier.Name())
		metrics.RecordOutboxDelivery(notifier.Name(), statusDelivered)
	}
}

func (d *Dispatcher) notifyWithRetry(ctx context.Context, notifier outbox.Notifier, msg *outbox.Message) error {
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		msg.IncrementAttempts()

		attemptCtx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
		lastErr = notifier.Notify(attemptCtx, msg)
		cancel()

		if lastErr == nil {
			return nil
		}
		var permanent outbox.ErrPermanent
		if errors.As(lastErr, &permanent) {
			return lastErr
		}
		if attempt < d.maxAttempts && d.retryBackoff > 0 {
			time.Sleep(d.retryBackoff * time.Duration(attempt))
		}
	}
	return lastErr
}

// Shutdown stops accepting messages, drains the queue and waits for in-flight deliveries
// until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("Shutting down Outbox Dispatcher", "pending", len(d.queue), "running_workers", d.pool.Running())

	drained := make(chan struct{})
	go func() {
		if started {
			<-d.done
		}
		d.jobs.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
		d.logger.Info("Outbox Dispatcher drained")
	case <-ctx.Done():
		err = ctx.Err()
		d.logger.Warn("Outbox Dispatcher shutdown timed out", "pending", len(d.queue))
	}

	d.pool.Release()
	return err
}
