package countdown

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTimer_FiresAfterRemaining(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	New(clock, time.Second, func() { fired++ })

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, fired)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, fired, "timer must fire once")
}

func TestTimer_PauseResume(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	timer := New(clock, time.Second, func() { fired++ })

	clock.Advance(400 * time.Millisecond)
	timer.Pause()
	assert.True(t, timer.Paused())
	assert.Equal(t, 600*time.Millisecond, timer.Remaining())

	// Time spent paused does not count
	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 600*time.Millisecond, timer.Remaining())

	timer.Resume()
	clock.Advance(599 * time.Millisecond)
	assert.Equal(t, 0, fired)
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.True(t, timer.Done())
}

func TestTimer_DoublePauseIsIdempotent(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	timer := New(clock, time.Second, func() { fired++ })

	clock.Advance(300 * time.Millisecond)
	timer.Pause()
	clock.Advance(200 * time.Millisecond)
	timer.Pause()
	assert.Equal(t, 700*time.Millisecond, timer.Remaining())

	timer.Resume()
	clock.Advance(700 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestTimer_ResumeWhileRunningDoesNotExtend(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	timer := New(clock, time.Second, func() { fired++ })

	clock.Advance(500 * time.Millisecond)
	timer.Resume()
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestTimer_MultipleCyclesSumElapsed(t *testing.T) {
	clock := NewFakeClock(epoch)
	timer := New(clock, time.Second, func() {})

	for i := 0; i < 3; i++ {
		clock.Advance(100 * time.Millisecond)
		timer.Pause()
		clock.Advance(time.Second)
		timer.Resume()
	}
	assert.Equal(t, 700*time.Millisecond, timer.Remaining())
}

func TestTimer_ZeroRemainingFiresNextTick(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	New(clock, 0, func() { fired++ })

	assert.Equal(t, 0, fired, "callback must not run synchronously")
	clock.Advance(0)
	assert.Equal(t, 1, fired)
}

func TestTimer_NegativeRemainingFiresNextTick(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	New(clock, -50*time.Millisecond, func() { fired++ })

	clock.Advance(0)
	assert.Equal(t, 1, fired)
}

func TestTimer_Stop(t *testing.T) {
	clock := NewFakeClock(epoch)
	fired := 0
	timer := New(clock, time.Second, func() { fired++ })

	timer.Stop()
	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
	assert.True(t, timer.Done())
	assert.Equal(t, 0, clock.Pending())

	// Resume after stop stays inert
	timer.Resume()
	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
}

func TestTimer_StaleFireIsDiscarded(t *testing.T) {
	clock := &staleClock{FakeClock: NewFakeClock(epoch)}
	fired := 0
	timer := New(clock, time.Second, func() { fired++ })

	// Simulate the runtime having already dispatched the fire when Pause runs:
	// Stop on the handle reports false and the function still gets called.
	timer.Pause()
	clock.runCaptured()
	assert.Equal(t, 0, fired)
}

func TestTimer_RealClock(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	New(RealClock{}, 10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "timer did not fire")
	}
	assert.Equal(t, int32(1), fired.Load())
}

// staleClock captures scheduled functions and refuses to cancel them,
// mimicking a timer that fired concurrently with Pause.
type staleClock struct {
	*FakeClock
	captured []func()
}

type noStop struct{}

func (noStop) Stop() bool { return false }

func (c *staleClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.captured = append(c.captured, f)
	return noStop{}
}

func (c *staleClock) runCaptured() {
	for _, f := range c.captured {
		f()
	}
}
