package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

func TestNotifier_EmitsEvents(t *testing.T) {
	bus := events.NewBus(nil)
	var got []events.Event
	bus.On(events.Wildcard, func(e events.Event) { got = append(got, e) })

	n := New(bus, nil)
	n.Text("hello")
	n.Close(7)

	require.Len(t, got, 2)
	assert.Equal(t, events.EventAdd, got[0].Name)
	assert.Equal(t, model.Request{Text: "hello"}, got[0].Payload)
	assert.Equal(t, events.EventClose, got[1].Name)
	assert.Equal(t, uint64(7), got[1].Payload)
}

func TestNotifier_DrivesManager(t *testing.T) {
	bus := events.NewBus(nil)
	clock := countdown.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	opts := display.DefaultOptions()
	opts.Group = "ops"
	m := display.NewManager(bus, opts, clock, nil)
	m.Attach()

	var created model.Item
	bus.On(events.EventCreated, func(e events.Event) { created = e.Payload.(model.Item) })

	n := New(bus, nil)
	n.Text("ignored by ops")
	n.Notify(model.Request{Group: "ops", Title: "deploy", Text: "done", Type: model.TypeSuccess})
	require.Equal(t, 1, m.ActiveCount())
	assert.Equal(t, "deploy", created.Title)

	n.Close(created.ID)
	assert.Equal(t, 0, m.ActiveCount())

	n.Notify(model.Request{Group: "ops", Title: "a"})
	n.Notify(model.Request{Group: "ops", Title: "b"})
	n.Clear("ops")
	assert.Equal(t, 0, m.ActiveCount())
}
