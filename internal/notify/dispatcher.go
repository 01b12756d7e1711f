package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// Dispatcher sends notifications in the background. Delivery is at-most-once:
// a notification is dropped when the queue is full or the send fails.
type Dispatcher struct {
	sender  Notifier
	queue   chan model.Notification
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker goroutines.
func NewDispatcher(sender Notifier, opts DispatcherOptions) *Dispatcher {
	if opts.QueueSize < 1 {
		opts.QueueSize = 256
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan model.Notification, opts.QueueSize),
		timeout: opts.Timeout,
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue schedules n for delivery without blocking.
func (d *Dispatcher) Enqueue(n model.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn().Str("event", string(n.Event)).Str("booking_id", n.BookingID.String()).
			Msg("notification dropped: dispatcher closed")
		return
	}
	select {
	case d.queue <- n:
	default:
		log.Warn().Str("event", string(n.Event)).Str("booking_id", n.BookingID.String()).
			Msg("notification dropped: queue full")
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		d.send(n)
	}
}

func (d *Dispatcher) send(n model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, n); err != nil {
		log.Warn().
			Err(err).
			Str("event", string(n.Event)).
			Str("booking_id", n.BookingID.String()).
			Msg("notification delivery failed")
	}
}

// Close stops accepting notifications and waits for queued ones to be sent
// or for ctx to expire.
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
		return ctx.Err()
	}
}
