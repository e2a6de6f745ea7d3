package display

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/events"
)

// Regions keeps one attached Manager per configured group on a shared bus.
type Regions struct {
	mu       sync.RWMutex
	bus      *events.Bus
	clock    countdown.Clock
	logger   *slog.Logger
	managers map[string]*Manager
}

// NewRegions creates an empty registry.
func NewRegions(bus *events.Bus, clock countdown.Clock, logger *slog.Logger) *Regions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Regions{
		bus:      bus,
		clock:    clock,
		logger:   logger,
		managers: make(map[string]*Manager),
	}
}

// Apply reconciles the registry with a new set of region options.
// Existing groups are updated in place, new groups get an attached
// manager and groups no longer listed are stopped. A group listed twice
// keeps its first definition.
func (r *Regions) Apply(opts []Options) {
	r.mu.Lock()
	seen := make(map[string]bool, len(opts))
	var stale []*Manager
	for _, o := range opts {
		if seen[o.Group] {
			r.logger.Warn("duplicate region ignored", "group", o.Group)
			continue
		}
		seen[o.Group] = true

		if m, ok := r.managers[o.Group]; ok {
			m.UpdateOptions(o)
			continue
		}
		m := NewManager(r.bus, o, r.clock, r.logger)
		m.Attach()
		r.managers[o.Group] = m
		r.logger.Info("region added", "group", o.Group, "position", o.Position.String())
	}
	for group, m := range r.managers {
		if !seen[group] {
			stale = append(stale, m)
			delete(r.managers, group)
			r.logger.Info("region removed", "group", group)
		}
	}
	r.mu.Unlock()

	for _, m := range stale {
		m.Stop()
	}
}

// Get returns the manager for group.
func (r *Regions) Get(group string) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.managers[group]
	return m, ok
}

// Groups returns the configured group names, sorted.
func (r *Regions) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]string, 0, len(r.managers))
	for g := range r.managers {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Managers returns the managers ordered by group name.
func (r *Regions) Managers() []*Manager {
	groups := r.Groups()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Manager, 0, len(groups))
	for _, g := range groups {
		if m, ok := r.managers[g]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Stop stops every manager and empties the registry.
func (r *Regions) Stop() {
	r.mu.Lock()
	managers := r.managers
	r.managers = make(map[string]*Manager)
	r.mu.Unlock()

	for _, m := range managers {
		m.Stop()
	}
}
