// Package dispatch implements the per-component event dispatcher: a single
// goroutine draining a FIFO queue and delivering each event to the consumers
// registered for its runtime class.
//
// One dispatcher per component is the framework's concurrency unit. All of a
// component's stubs process events on its dispatcher goroutine, so stub
// state needs no locking as long as it is only touched from consumers.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/c360/servicebus/classid"
	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/event"
)

// registration pairs a class filter with a consumer.
type registration struct {
	class    *classid.Class
	consumer event.Consumer
}

// EventDispatcher is a single-goroutine FIFO event dispatcher. Events posted
// from one goroutine are delivered in the order posted; no event for this
// dispatcher is processed concurrently with another.
type EventDispatcher struct {
	name   string
	logger *slog.Logger

	mu            sync.Mutex
	pending       *queue.Queue // FIFO of event.Event
	registrations []registration
	running       bool
	stopped       bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewEventDispatcher creates a dispatcher for the named component thread.
func NewEventDispatcher(name string, logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{
		name:    name,
		logger:  logger,
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Name returns the dispatcher thread name used in stub addresses.
func (d *EventDispatcher) Name() string { return d.name }

// RegisterConsumer subscribes c to events whose class chain contains class.
func (d *EventDispatcher) RegisterConsumer(class *classid.Class, c event.Consumer) error {
	if class == nil || c == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "EventDispatcher", "RegisterConsumer", "consumer validation")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, reg := range d.registrations {
		if reg.class == class && reg.consumer == c {
			msg := fmt.Errorf("consumer already registered for class %s", class.ID())
			return errors.WrapInvalid(msg, "EventDispatcher", "RegisterConsumer", "duplicate consumer check")
		}
	}

	d.registrations = append(d.registrations, registration{class: class, consumer: c})
	return nil
}

// UnregisterConsumer removes a subscription. Unknown pairs are ignored.
func (d *EventDispatcher) UnregisterConsumer(class *classid.Class, c event.Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, reg := range d.registrations {
		if reg.class == class && reg.consumer == c {
			d.registrations = append(d.registrations[:i], d.registrations[i+1:]...)
			return
		}
	}
}

// Post enqueues e for delivery and returns immediately.
func (d *EventDispatcher) Post(e event.Event) error {
	if e == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "EventDispatcher", "Post", "event validation")
	}

	d.mu.Lock()
	if !d.running || d.stopped {
		d.mu.Unlock()
		return errors.WrapTransient(errors.ErrNotDispatching, "EventDispatcher", "Post", "dispatcher state check")
	}
	d.pending.Add(e)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the dispatch goroutine. Starting twice is an error.
func (d *EventDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "EventDispatcher", "Start", "already started check")
	}
	if d.stopped {
		return errors.WrapInvalid(errors.ErrShuttingDown, "EventDispatcher", "Start", "restart check")
	}

	d.running = true
	go d.run(ctx)
	d.logger.Debug("dispatcher started", "component", d.name)
	return nil
}

// Stop shuts the dispatcher down, draining already-queued events, and waits
// up to timeout for the goroutine to exit.
func (d *EventDispatcher) Stop(timeout time.Duration) error {
	d.mu.Lock()
	if !d.running || d.stopped {
		d.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotDispatching, "EventDispatcher", "Stop", "dispatcher state check")
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.quit)

	select {
	case <-d.done:
		d.logger.Debug("dispatcher stopped", "component", d.name)
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrConnectionTimeout, "EventDispatcher", "Stop", "dispatch loop drain")
	}
}

// run is the dispatch loop. It drains the FIFO completely on every wakeup
// and exits once quit is signaled and the queue is empty.
func (d *EventDispatcher) run(ctx context.Context) {
	defer close(d.done)
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	for {
		d.drain()

		select {
		case <-d.wake:
		case <-d.quit:
			d.drain()
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain delivers every queued event in FIFO order.
func (d *EventDispatcher) drain() {
	for {
		d.mu.Lock()
		if d.pending.Length() == 0 {
			d.mu.Unlock()
			return
		}
		e := d.pending.Remove().(event.Event)
		targets := d.consumersFor(e)
		d.mu.Unlock()

		for _, c := range targets {
			d.deliver(e, c)
		}
	}
}

// consumersFor snapshots the consumers whose registered class is in the
// event's class chain. Caller holds d.mu.
func (d *EventDispatcher) consumersFor(e event.Event) []event.Consumer {
	var targets []event.Consumer
	for _, reg := range d.registrations {
		if e.RuntimeClass().Is(reg.class.ID()) {
			targets = append(targets, reg.consumer)
		}
	}
	return targets
}

// deliver invokes one consumer, containing panics so a faulty service does
// not kill the component's dispatch loop.
func (d *EventDispatcher) deliver(e event.Event, c event.Consumer) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("consumer panic recovered",
				"component", d.name,
				"event_class", e.RuntimeClass().ID().Name(),
				"panic", r)
		}
	}()
	c.ProcessEvent(e)
}
