package display

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/animation"
	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/layout"
	"github.com/jmylchreest/toasty/internal/model"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recorder struct {
	events []events.Event
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func (r *recorder) destroys() []DestroyEvent {
	var out []DestroyEvent
	for _, e := range r.events {
		if e.Name == events.EventDestroy {
			out = append(out, e.Payload.(DestroyEvent))
		}
	}
	return out
}

type fixture struct {
	bus   *events.Bus
	clock *countdown.FakeClock
	m     *Manager
	rec   *recorder
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()

	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	bus := events.NewBus(nil)
	clock := countdown.NewFakeClock(epoch)
	m := NewManager(bus, opts, clock, nil)
	m.Attach()

	rec := &recorder{}
	for _, name := range []string{events.EventCreated, events.EventDestroy, events.EventClick} {
		bus.On(name, func(e events.Event) { rec.events = append(rec.events, e) })
	}
	return &fixture{bus: bus, clock: clock, m: m, rec: rec}
}

func titles(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestManager_InsertionOrder(t *testing.T) {
	tests := []struct {
		name     string
		position string
		reverse  bool
		want     []string
	}{
		{name: "top newest first", position: "top right", want: []string{"C", "B", "A"}},
		{name: "top reversed", position: "top right", reverse: true, want: []string{"A", "B", "C"}},
		{name: "bottom oldest first", position: "bottom left", want: []string{"A", "B", "C"}},
		{name: "bottom reversed", position: "bottom left", reverse: true, want: []string{"C", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(o *Options) {
				o.Position = layout.ParsePosition(tt.position)
				o.Reverse = tt.reverse
			})
			for _, title := range []string{"A", "B", "C"} {
				f.bus.Emit(events.EventAdd, model.Request{Title: title})
			}
			assert.Equal(t, tt.want, titles(f.m.Active()))
		})
	}
}

func TestManager_MaxEvictsOppositeEnd(t *testing.T) {
	for _, position := range []string{"top right", "bottom right"} {
		t.Run(position, func(t *testing.T) {
			f := newFixture(t, func(o *Options) {
				o.Position = layout.ParsePosition(position)
				o.Max = 1
			})

			f.m.Add(model.Request{Title: "A"})
			f.m.Add(model.Request{Title: "B"})

			assert.Equal(t, []string{"B"}, titles(f.m.Active()))
			destroys := f.rec.destroys()
			require.Len(t, destroys, 1)
			assert.Equal(t, "A", destroys[0].Item.Title)
			assert.Equal(t, ReasonEvicted, destroys[0].Reason)
			assert.Equal(t, []string{events.EventCreated, events.EventCreated, events.EventDestroy}, f.rec.names())
		})
	}
}

func TestManager_MaxZeroIsUnlimited(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 50; i++ {
		f.m.Add(model.TextRequest("x"))
	}
	assert.Equal(t, 50, f.m.ActiveCount())
}

func TestManager_IgnoreDuplicates(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.IgnoreDuplicates = true })

	first, ok := f.m.Add(model.Request{Title: "T", Text: "body"})
	require.True(t, ok)

	_, ok = f.m.Add(model.Request{Title: "T", Text: "body"})
	assert.False(t, ok)
	assert.Equal(t, 1, f.m.ActiveCount())

	_, ok = f.m.Add(model.Request{Title: "T", Text: "other"})
	assert.True(t, ok)

	// A destroyed item no longer blocks its duplicate.
	require.True(t, f.m.Destroy(first.ID))
	_, ok = f.m.Add(model.Request{Title: "T", Text: "body"})
	assert.True(t, ok)

	// Per-request override wins over the region option.
	_, ok = f.m.Add(model.Request{Title: "T", Text: "body"}.WithIgnoreDuplicates(false))
	assert.True(t, ok)
}

func TestManager_DuplicateDoesNotScheduleTimer(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.IgnoreDuplicates = true })

	f.m.Add(model.Request{Title: "T"})
	f.m.Add(model.Request{Title: "T"})
	assert.Equal(t, 1, f.clock.Pending())
}

func TestManager_GroupFilter(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Group = "alerts" })

	f.bus.Emit(events.EventAdd, model.Request{Title: "other"})
	f.bus.Emit(events.EventAdd, model.Request{Title: "mine", Group: "alerts"})

	assert.Equal(t, []string{"mine"}, titles(f.m.Active()))
	assert.Equal(t, "alerts", f.m.Active()[0].Group)
}

func TestManager_ClearRequest(t *testing.T) {
	for _, req := range []model.Request{{Clean: true}, {Clear: true}} {
		f := newFixture(t, nil)
		f.m.Add(model.Request{Title: "A"})
		f.m.Add(model.Request{Title: "B"})

		_, ok := f.m.Add(req)
		assert.False(t, ok)
		assert.Empty(t, f.m.Active())
		assert.Equal(t, 0, f.clock.Pending())

		destroys := f.rec.destroys()
		require.Len(t, destroys, 2)
		for _, d := range destroys {
			assert.Equal(t, ReasonCleared, d.Reason)
		}
	}
}

func TestManager_Expiry(t *testing.T) {
	f := newFixture(t, nil)

	item, ok := f.m.Add(model.Request{Title: "A"})
	require.True(t, ok)
	assert.Equal(t, 3600*time.Millisecond, item.Length)
	assert.Equal(t, epoch, item.CreatedAt)

	f.clock.Advance(3599 * time.Millisecond)
	assert.Equal(t, 1, f.m.ActiveCount())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 0, f.m.ActiveCount())
	assert.Equal(t, 0, f.m.Len())

	destroys := f.rec.destroys()
	require.Len(t, destroys, 1)
	assert.Equal(t, ReasonExpired, destroys[0].Reason)
	assert.Equal(t, model.StateDestroyed, destroys[0].Item.State)
}

func TestManager_RequestOverrides(t *testing.T) {
	f := newFixture(t, nil)

	item, _ := f.m.Add(model.Request{Title: "A"}.WithDuration(time.Second).WithSpeed(100 * time.Millisecond))
	assert.Equal(t, 1200*time.Millisecond, item.Length)

	f.clock.Advance(1200 * time.Millisecond)
	assert.Equal(t, 0, f.m.ActiveCount())
}

func TestManager_ZeroLengthExpiresOnNextTick(t *testing.T) {
	f := newFixture(t, nil)

	f.m.Add(model.Request{Title: "A"}.WithDuration(0).WithSpeed(0))
	assert.Equal(t, 1, f.m.ActiveCount())

	f.clock.Advance(0)
	assert.Equal(t, 0, f.m.ActiveCount())
}

func TestManager_StickyNeverExpires(t *testing.T) {
	f := newFixture(t, nil)

	item, _ := f.m.Add(model.Request{Title: "A"}.WithDuration(-1))
	assert.True(t, item.Sticky())
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(24 * time.Hour)
	assert.Equal(t, 1, f.m.ActiveCount())

	_, ok := f.m.Remaining(item.ID)
	assert.False(t, ok)
}

func TestManager_PauseOnHover(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.PauseOnHover = true })
	item, _ := f.m.Add(model.Request{Title: "A"})

	f.clock.Advance(time.Second)
	f.m.PauseTimeout(item.ID)
	f.m.PauseTimeout(item.ID)
	assert.True(t, f.m.Paused(item.ID))

	f.clock.Advance(time.Minute)
	assert.Equal(t, 1, f.m.ActiveCount())

	remaining, ok := f.m.Remaining(item.ID)
	require.True(t, ok)
	assert.Equal(t, 2600*time.Millisecond, remaining)

	f.m.ResumeTimeout(item.ID)
	f.m.ResumeTimeout(item.ID)
	f.clock.Advance(2599 * time.Millisecond)
	assert.Equal(t, 1, f.m.ActiveCount())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 0, f.m.ActiveCount())
	assert.Len(t, f.rec.destroys(), 1)
}

func TestManager_PauseIgnoredWithoutPauseOnHover(t *testing.T) {
	f := newFixture(t, nil)
	item, _ := f.m.Add(model.Request{Title: "A"})

	f.m.PauseTimeout(item.ID)
	assert.False(t, f.m.Paused(item.ID))

	f.clock.Advance(3600 * time.Millisecond)
	assert.Equal(t, 0, f.m.ActiveCount())
}

func TestManager_CloseByID(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.m.Add(model.Request{Title: "A"})
	f.m.Add(model.Request{Title: "B"})

	f.bus.Emit(events.EventClose, a.ID)
	assert.Equal(t, []string{"B"}, titles(f.m.Active()))

	// Unknown ids and a second close are no-ops.
	f.bus.Emit(events.EventClose, uint64(999999))
	f.bus.Emit(events.EventClose, a.ID)
	f.bus.Emit(events.EventClose, "not an id")

	destroys := f.rec.destroys()
	require.Len(t, destroys, 1)
	assert.Equal(t, ReasonClosed, destroys[0].Reason)
	assert.Equal(t, 1, f.clock.Pending())
}

func TestManager_CallerID(t *testing.T) {
	f := newFixture(t, nil)

	item, _ := f.m.Add(model.Request{ID: 42, Title: "A"})
	assert.Equal(t, uint64(42), item.ID)

	f.bus.Emit(events.EventClose, 42)
	assert.Empty(t, f.m.Active())
}

func TestManager_Click(t *testing.T) {
	t.Run("close on click", func(t *testing.T) {
		f := newFixture(t, nil)
		item, _ := f.m.Add(model.Request{Title: "A"})

		assert.True(t, f.m.Click(item.ID))
		assert.Empty(t, f.m.Active())
		assert.Equal(t, []string{events.EventCreated, events.EventClick, events.EventDestroy}, f.rec.names())
		assert.Equal(t, ReasonDismissed, f.rec.destroys()[0].Reason)

		assert.False(t, f.m.Click(item.ID))
	})

	t.Run("keep on click", func(t *testing.T) {
		f := newFixture(t, func(o *Options) { o.CloseOnClick = false })
		item, _ := f.m.Add(model.Request{Title: "A"})

		assert.True(t, f.m.Click(item.ID))
		assert.Len(t, f.m.Active(), 1)
		assert.Equal(t, []string{events.EventCreated, events.EventClick}, f.rec.names())
	})
}

func TestManager_DestroyIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	item, _ := f.m.Add(model.Request{Title: "A"})

	assert.True(t, f.m.Destroy(item.ID))
	assert.False(t, f.m.Destroy(item.ID))
	f.m.DestroyAll()
	f.clock.Advance(time.Hour)

	assert.Len(t, f.rec.destroys(), 1)
}

func TestManager_DeferredCompaction(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AnimationType = animation.TypeVelocity })
	a, _ := f.m.Add(model.Request{Title: "A"})
	f.m.Add(model.Request{Title: "B"})

	f.m.Destroy(a.ID)
	assert.Equal(t, []string{"B"}, titles(f.m.Active()))
	assert.Equal(t, 2, f.m.Len())
	items := f.m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[1].Title)
	assert.Equal(t, model.StateDestroyed, items[1].State)

	coord := f.m.NewCoordinator(nil)
	require.True(t, coord.DefersCompaction())
	coord.AfterLeave()
	assert.Equal(t, 1, f.m.Len())
}

func TestManager_DeferredCompactionKeepsEvictionOrder(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.AnimationType = animation.TypeVelocity
		o.Max = 2
	})
	f.m.Add(model.Request{Title: "A"})
	f.m.Add(model.Request{Title: "B"})
	f.m.Add(model.Request{Title: "C"})
	f.m.Add(model.Request{Title: "D"})

	assert.Equal(t, []string{"D", "C"}, titles(f.m.Active()))
	assert.Equal(t, 4, f.m.Len())

	f.m.AfterLeave()
	assert.Equal(t, 2, f.m.Len())
}

func TestManager_HandlersMayReenter(t *testing.T) {
	f := newFixture(t, nil)

	var seen int
	f.bus.On(events.EventCreated, func(events.Event) { seen = f.m.ActiveCount() })
	f.bus.On(events.EventDestroy, func(e events.Event) {
		f.m.Add(model.Request{Title: "again"})
	})

	item, _ := f.m.Add(model.Request{Title: "A"})
	assert.Equal(t, 1, seen)

	f.m.Destroy(item.ID)
	assert.Equal(t, []string{"again"}, titles(f.m.Active()))
}

func TestManager_RealClockPublishesInMutationOrder(t *testing.T) {
	bus := events.NewBus(nil)
	m := NewManager(bus, DefaultOptions(), countdown.RealClock{}, nil)

	const n = 2000
	var (
		mu        sync.Mutex
		created   = make(map[uint64]bool)
		destroyed int
		early     int
	)
	bus.On(events.EventCreated, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		created[e.Payload.(model.Item).ID] = true
	})
	bus.On(events.EventDestroy, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		if !created[e.Payload.(DestroyEvent).Item.ID] {
			early++
		}
		destroyed++
	})

	for i := 0; i < n; i++ {
		m.Add(model.Request{Title: "x"}.WithDuration(0).WithSpeed(0))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return destroyed == n
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, early, "destroy published before created")
}

func TestManager_Detach(t *testing.T) {
	f := newFixture(t, nil)
	f.m.Detach()
	f.m.Detach()

	f.bus.Emit(events.EventAdd, model.Request{Title: "A"})
	assert.Empty(t, f.m.Active())
	assert.Equal(t, 0, f.bus.HandlerCount(events.EventAdd))

	f.m.Attach()
	f.bus.Emit(events.EventAdd, model.Request{Title: "A"})
	f.bus.Emit(events.EventAdd, "plain text")
	assert.Equal(t, []string{"", "A"}, titles(f.m.Active()))
}

func TestManager_UpdateOptions(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Group = "g" })

	next := DefaultOptions()
	next.Group = "other"
	next.Duration = time.Second
	f.m.UpdateOptions(next)

	assert.Equal(t, "g", f.m.Group())
	item, ok := f.m.Add(model.Request{Group: "g", Title: "A"})
	require.True(t, ok)
	assert.Equal(t, 1600*time.Millisecond, item.Length)
}

func TestManager_UpdateOptionsFlushesDeferred(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AnimationType = animation.TypeVelocity })
	item, _ := f.m.Add(model.Request{Title: "A"})
	f.m.Destroy(item.ID)
	require.Equal(t, 1, f.m.Len())

	f.m.UpdateOptions(DefaultOptions())
	assert.Equal(t, 0, f.m.Len())
}

func TestManager_Stop(t *testing.T) {
	f := newFixture(t, nil)
	f.m.Add(model.Request{Title: "A"})

	f.m.Stop()
	assert.Empty(t, f.m.Active())
	assert.Equal(t, 0, f.bus.HandlerCount(events.EventClose))
}

func TestOptions_Direction(t *testing.T) {
	o := DefaultOptions()
	assert.False(t, o.Direction())

	o.Reverse = true
	assert.True(t, o.Direction())

	o.Position = layout.ParsePosition("bottom")
	assert.False(t, o.Direction())
}
