package animation

import (
	"sync"

	"github.com/jmylchreest/toasty/internal/countdown"
)

// TimedTransport is a Transport that holds each descriptor for the
// animation duration and then completes. Renderers without a tween
// engine read Current to style elements mid-transition.
type TimedTransport struct {
	mu      sync.Mutex
	clock   countdown.Clock
	seq     uint64
	running map[Element]run
}

// run is the latest animation started on an element. seq identifies it so
// an older completion cannot clear a newer one.
type run struct {
	seq uint64
	d   Descriptor
}

// NewTimedTransport creates a transport scheduled on clock.
func NewTimedTransport(clock countdown.Clock) *TimedTransport {
	if clock == nil {
		clock = countdown.RealClock{}
	}
	return &TimedTransport{
		clock:   clock,
		running: make(map[Element]run),
	}
}

// Animate records d for el and calls opts.Complete after opts.Duration.
func (t *TimedTransport) Animate(el Element, d Descriptor, opts Options) {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.running[el] = run{seq: seq, d: d}
	t.mu.Unlock()

	t.clock.AfterFunc(opts.Duration, func() {
		t.mu.Lock()
		if r, ok := t.running[el]; ok && r.seq == seq {
			delete(t.running, el)
		}
		t.mu.Unlock()

		if opts.Complete != nil {
			opts.Complete()
		}
	})
}

// Current returns the descriptor animating el, if any.
func (t *TimedTransport) Current(el Element) (Descriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.running[el]
	return r.d, ok
}
