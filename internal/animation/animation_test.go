package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/countdown"
)

type box struct{ h int }

func (b *box) Height() int { return b.h }

type call struct {
	el       Element
	d        Descriptor
	duration time.Duration
}

type recordingTransport struct {
	calls []call
}

func (r *recordingTransport) Animate(el Element, d Descriptor, opts Options) {
	r.calls = append(r.calls, call{el: el, d: d, duration: opts.Duration})
	if opts.Complete != nil {
		opts.Complete()
	}
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeVelocity, ParseType("velocity"))
	assert.Equal(t, TypeCSS, ParseType("css"))
	assert.Equal(t, TypeCSS, ParseType(""))
	assert.Equal(t, TypeCSS, ParseType("Velocity"))
}

func TestSource_Resolve(t *testing.T) {
	static := Static(Descriptor{"opacity": 1})
	assert.Equal(t, Descriptor{"opacity": 1}, static.Resolve(nil))

	fn := Func(func(el Element) Descriptor {
		return Descriptor{"height": el.Height()}
	})
	assert.Equal(t, Descriptor{"height": 42}, fn.Resolve(&box{h: 42}))

	assert.True(t, Source{}.IsZero())
	assert.False(t, static.IsZero())
}

func TestDefault(t *testing.T) {
	anim := Default()

	enter := anim.Enter.Resolve(&box{h: 64})
	assert.Equal(t, []int{64, 0}, enter["height"])
	assert.Equal(t, []int{1, 0}, enter["opacity"])

	leave := anim.Leave.Resolve(&box{h: 64})
	assert.Equal(t, 0, leave["height"])
	assert.Equal(t, []int{0, 1}, leave["opacity"])
}

func TestCoordinator_VelocityInvokesTransport(t *testing.T) {
	tr := &recordingTransport{}
	c := NewCoordinator(TypeVelocity, Animation{}, 300*time.Millisecond, tr, nil, nil)
	assert.True(t, c.DefersCompaction())

	el := &box{h: 10}
	entered, left := false, false
	c.Enter(el, func() { entered = true })
	c.Leave(el, func() { left = true })

	require.Len(t, tr.calls, 2)
	assert.True(t, entered)
	assert.True(t, left)
	assert.Equal(t, []int{10, 0}, tr.calls[0].d["height"])
	assert.Equal(t, 0, tr.calls[1].d["height"])
	assert.Equal(t, 300*time.Millisecond, tr.calls[0].duration)
}

func TestCoordinator_CSSDoesNotInvokeTransport(t *testing.T) {
	tr := &recordingTransport{}
	compacted := 0
	c := NewCoordinator(TypeCSS, Default(), 300*time.Millisecond, tr, func() { compacted++ }, nil)
	assert.False(t, c.DefersCompaction())

	c.Enter(&box{}, nil)
	c.Leave(&box{}, nil)
	assert.Empty(t, tr.calls)

	c.AfterLeave()
	assert.Equal(t, 1, compacted)
}

func TestCoordinator_VelocityWithoutTransportCompletes(t *testing.T) {
	c := NewCoordinator(TypeVelocity, Default(), time.Second, nil, nil, nil)

	done := false
	c.Leave(&box{}, func() { done = true })
	assert.True(t, done)
	assert.NotPanics(t, c.AfterLeave)
}

func TestTimedTransport(t *testing.T) {
	clock := countdown.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := NewTimedTransport(clock)
	el := &box{h: 3}

	done := false
	tr.Animate(el, Descriptor{"opacity": []int{0, 1}}, Options{
		Duration: 200 * time.Millisecond,
		Complete: func() { done = true },
	})

	d, ok := tr.Current(el)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, d["opacity"])

	clock.Advance(200 * time.Millisecond)
	assert.True(t, done)
	_, ok = tr.Current(el)
	assert.False(t, ok)
}

func TestTimedTransport_LeaveDuringEnter(t *testing.T) {
	clock := countdown.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := NewTimedTransport(clock)
	el := &box{h: 3}

	entered, left := false, false
	tr.Animate(el, Descriptor{"opacity": []int{0, 1}}, Options{
		Duration: 300 * time.Millisecond,
		Complete: func() { entered = true },
	})
	clock.Advance(100 * time.Millisecond)
	tr.Animate(el, Descriptor{"opacity": []int{1, 0}}, Options{
		Duration: 300 * time.Millisecond,
		Complete: func() { left = true },
	})

	clock.Advance(250 * time.Millisecond)
	assert.True(t, entered)
	assert.False(t, left)
	d, ok := tr.Current(el)
	require.True(t, ok, "leave must still be running after the enter completes")
	assert.Equal(t, []int{1, 0}, d["opacity"])

	clock.Advance(50 * time.Millisecond)
	assert.True(t, left)
	_, ok = tr.Current(el)
	assert.False(t, ok)
}
