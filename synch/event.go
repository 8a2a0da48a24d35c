package synch

import (
	"sync"
	"time"
)

// Event is a signalable gate. Waiters block in Lock until the event is set.
// A manual-reset event releases all waiters and stays signaled until Reset;
// an auto-reset event releases one waiter per Set.
type Event struct {
	mu        sync.Mutex
	gate      chan struct{} // closed when signaled (manual reset)
	tokens    chan struct{} // one token per Set (auto reset)
	autoReset bool
	signaled  bool
}

// NewEvent creates an event. If autoReset is true each Set releases exactly
// one waiter; otherwise Set releases all current and future waiters until
// Reset is called. The event starts non-signaled.
func NewEvent(autoReset bool) *Event {
	e := &Event{autoReset: autoReset}
	if autoReset {
		e.tokens = make(chan struct{}, 1)
	} else {
		e.gate = make(chan struct{})
	}
	return e
}

// Set signals the event.
func (e *Event) Set() {
	if e.autoReset {
		select {
		case e.tokens <- struct{}{}:
		default:
			// Already signaled; auto-reset events do not accumulate.
		}
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.signaled {
		e.signaled = true
		close(e.gate)
	}
}

// Reset returns the event to the non-signaled state. For an auto-reset
// event it discards a pending signal that no waiter has consumed yet.
func (e *Event) Reset() {
	if e.autoReset {
		select {
		case <-e.tokens:
		default:
		}
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled {
		e.signaled = false
		e.gate = make(chan struct{})
	}
}

// Lock waits for the event to be signaled within timeout milliseconds.
func (e *Event) Lock(timeout uint32) bool {
	if e.autoReset {
		return e.waitToken(timeout)
	}
	return e.waitGate(timeout)
}

func (e *Event) waitToken(timeout uint32) bool {
	switch timeout {
	case DoNotWait:
		select {
		case <-e.tokens:
			return true
		default:
			return false
		}
	case WaitInfinite:
		<-e.tokens
		return true
	default:
		timer := time.NewTimer(waitDuration(timeout))
		defer timer.Stop()
		select {
		case <-e.tokens:
			return true
		case <-timer.C:
			return false
		}
	}
}

func (e *Event) waitGate(timeout uint32) bool {
	e.mu.Lock()
	gate := e.gate
	e.mu.Unlock()

	switch timeout {
	case DoNotWait:
		select {
		case <-gate:
			return true
		default:
			return false
		}
	case WaitInfinite:
		<-gate
		return true
	default:
		timer := time.NewTimer(waitDuration(timeout))
		defer timer.Stop()
		select {
		case <-gate:
			return true
		case <-timer.C:
			return false
		}
	}
}

// Unlock signals the event. Returns true always; setting an already signaled
// event is permitted.
func (e *Event) Unlock() bool {
	e.Set()
	return true
}

// IsValid reports whether the event is usable.
func (e *Event) IsValid() bool { return e.gate != nil || e.tokens != nil }

// Kind returns KindEvent.
func (e *Event) Kind() Kind { return KindEvent }

// Timer is a waitable timer. After Start, Lock blocks until the period
// elapses. A stopped or unstarted timer never signals.
type Timer struct {
	mu    sync.Mutex
	fired chan struct{}
	timer *time.Timer
}

// NewTimer creates an unstarted waitable timer.
func NewTimer() *Timer {
	return &Timer{}
}

// Start arms the timer to fire once after d. Restarting an armed timer
// cancels the previous period.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	fired := make(chan struct{})
	t.fired = fired
	t.timer = time.AfterFunc(d, func() { close(fired) })
}

// Stop disarms the timer. Waiters keep waiting until their bound expires.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Lock waits for the timer to fire within timeout milliseconds.
func (t *Timer) Lock(timeout uint32) bool {
	t.mu.Lock()
	fired := t.fired
	t.mu.Unlock()

	if fired == nil {
		// Never started.
		return false
	}

	switch timeout {
	case DoNotWait:
		select {
		case <-fired:
			return true
		default:
			return false
		}
	case WaitInfinite:
		<-fired
		return true
	default:
		timer := time.NewTimer(waitDuration(timeout))
		defer timer.Stop()
		select {
		case <-fired:
			return true
		case <-timer.C:
			return false
		}
	}
}

// Unlock stops the timer.
func (t *Timer) Unlock() bool {
	t.Stop()
	return true
}

// IsValid reports whether the timer has been armed at least once.
func (t *Timer) IsValid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired != nil
}

// Kind returns KindTimer.
func (t *Timer) Kind() Kind { return KindTimer }
