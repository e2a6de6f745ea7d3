package countdown

import (
	"sync"
	"time"
)

// Timer counts down a remaining duration and runs a callback when it
// reaches zero. It can be paused and resumed any number of times.
//
// Every scheduled fire is tagged with a generation; pausing or stopping
// bumps the generation so a fire already in flight is discarded.
type Timer struct {
	mu       sync.Mutex
	clock    Clock
	callback func()

	remaining time.Duration
	start     time.Time
	handle    Stopper
	gen       uint64

	paused bool
	done   bool
}

// New creates a timer for remaining and starts it immediately.
func New(clock Clock, remaining time.Duration, callback func()) *Timer {
	if clock == nil {
		clock = RealClock{}
	}
	t := &Timer{
		clock:     clock,
		callback:  callback,
		remaining: remaining,
		paused:    true,
	}
	t.Resume()
	return t
}

// Pause cancels the pending fire and banks the elapsed time.
// Pausing a paused or finished timer does nothing.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done || t.paused {
		return
	}
	t.cancelLocked()
	t.remaining -= t.clock.Now().Sub(t.start)
	t.paused = true
}

// Resume schedules the callback after the remaining time.
// A remaining time at or below zero fires on the next scheduler tick.
// Resuming a running or finished timer does nothing.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done || !t.paused {
		return
	}
	t.start = t.clock.Now()
	t.cancelLocked()
	gen := t.gen
	t.handle = t.clock.AfterFunc(t.remaining, func() { t.fire(gen) })
	t.paused = false
}

// Stop cancels the timer permanently without running the callback.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return
	}
	t.cancelLocked()
	t.done = true
}

// Remaining returns the time left before the callback runs.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused || t.done {
		return t.remaining
	}
	return t.remaining - t.clock.Now().Sub(t.start)
}

// Paused reports whether the timer is paused.
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused && !t.done
}

// Done reports whether the timer has fired or been stopped.
func (t *Timer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// cancelLocked stops the scheduled fire and invalidates any fire in flight.
func (t *Timer) cancelLocked() {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
	t.gen++
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.done || t.paused || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.handle = nil
	t.remaining = 0
	cb := t.callback
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}
