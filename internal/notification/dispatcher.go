package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

const defaultDeliveryTimeout = 15 * time.Second

// Dispatcher hands events to a fixed pool of workers so callers never wait on
// SMTP, Kafka or websocket writes. Events that do not fit in the queue are
// dropped and logged.
type Dispatcher struct {
	next    Notifier
	queue   chan Event
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(next Notifier, queueSize, workers int, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	d := &Dispatcher{
		next:    next,
		queue:   make(chan Event, queueSize),
		timeout: timeout,
		log:     log,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.run()
	}
	return d
}

// Notify enqueues e and returns at once. The caller's context only matters
// for the enqueue; delivery runs on its own deadline.
func (d *Dispatcher) Notify(_ context.Context, e Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- e:
		return nil
	default:
		d.log.WithFields(logrus.Fields{
			"event":      e.Type,
			"booking_id": e.BookingID,
			"payment_id": e.PaymentID,
		}).Warn("notification queue full, event dropped")
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		// the wrapped notifier logs its own failures
		_ = d.next.Notify(ctx, e)
		cancel()
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.log.WithField("pending", len(d.queue)).Warn("notification dispatcher closed before draining")
		return ctx.Err()
	}
}
