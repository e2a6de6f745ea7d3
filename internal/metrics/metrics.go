// Package metrics exposes queue activity as Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

// Label values used for empty group names and types.
const (
	defaultGroupLabel = "default"
	noTypeLabel       = "none"
)

// Metrics groups all Prometheus instruments fed from the bus.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	Events    *prometheus.CounterVec
	Created   *prometheus.CounterVec
	Destroyed *prometheus.CounterVec
	Active    *prometheus.GaugeVec
	Visible   *prometheus.HistogramVec

	now func() time.Time
}

// New registers all instruments with the given Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toasty_events_total",
			Help: "Total number of bus events by name.",
		}, []string{"event"}),

		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toasty_created_total",
			Help: "Total number of notifications queued.",
		}, []string{"group", "type"}),

		Destroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toasty_destroyed_total",
			Help: "Total number of notifications destroyed, by reason.",
		}, []string{"group", "reason"}),

		Active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "toasty_active",
			Help: "Current number of active notifications per group.",
		}, []string{"group"}),

		Visible: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toasty_visible_seconds",
			Help:    "Time from creation to destruction of a notification.",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30, 60, 300},
		}, []string{"group"}),

		now: time.Now,
	}

	reg.MustRegister(
		m.Events,
		m.Created,
		m.Destroyed,
		m.Active,
		m.Visible,
	)

	return m
}

// Attach subscribes the instruments to every event on bus.
func (m *Metrics) Attach(bus *events.Bus) events.HandlerID {
	return bus.On(events.Wildcard, m.Observe)
}

// Observe records one bus event.
func (m *Metrics) Observe(ev events.Event) {
	m.Events.WithLabelValues(ev.Name).Inc()

	switch ev.Name {
	case events.EventCreated:
		item, ok := ev.Payload.(model.Item)
		if !ok {
			return
		}
		group := groupLabel(item.Group)
		m.Created.WithLabelValues(group, typeLabel(item.Type)).Inc()
		m.Active.WithLabelValues(group).Inc()

	case events.EventDestroy:
		de, ok := ev.Payload.(display.DestroyEvent)
		if !ok {
			return
		}
		group := groupLabel(de.Item.Group)
		m.Destroyed.WithLabelValues(group, string(de.Reason)).Inc()
		m.Active.WithLabelValues(group).Dec()
		if !de.Item.CreatedAt.IsZero() {
			m.Visible.WithLabelValues(group).Observe(m.now().Sub(de.Item.CreatedAt).Seconds())
		}
	}
}

func groupLabel(g string) string {
	if g == "" {
		return defaultGroupLabel
	}
	return g
}

func typeLabel(t string) string {
	if t == "" {
		return noTypeLabel
	}
	return t
}
