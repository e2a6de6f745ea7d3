package display

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toasty/internal/animation"
	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

// Reason explains why an item was destroyed.
type Reason string

const (
	// ReasonExpired means the item's countdown ran out.
	ReasonExpired Reason = "expired"
	// ReasonDismissed means the renderer closed it, usually a click.
	ReasonDismissed Reason = "dismissed"
	// ReasonClosed means a producer sent a close event for its id.
	ReasonClosed Reason = "closed"
	// ReasonCleared means a clean/clear request or DestroyAll removed it.
	ReasonCleared Reason = "cleared"
	// ReasonEvicted means the region exceeded its max.
	ReasonEvicted Reason = "evicted"
)

// DestroyEvent is the payload of events.EventDestroy.
type DestroyEvent struct {
	Item   model.Item
	Reason Reason
}

// entry is a queued item and its countdown. Sticky items have no timer.
type entry struct {
	item  model.Item
	timer *countdown.Timer
}

type outgoing struct {
	name    string
	payload any
}

// Manager owns the queue of one group.
//
// All state is guarded by mu. Timer callbacks arrive on clock goroutines
// and take the same lock. Outgoing events are queued under mu in mutation
// order and drained by one goroutine at a time after it is released, so
// handlers may call back into the manager.
type Manager struct {
	mu     sync.Mutex
	opts   Options
	bus    *events.Bus
	clock  countdown.Clock
	logger *slog.Logger

	list []*entry

	pending  []outgoing
	draining bool

	addID    events.HandlerID
	closeID  events.HandlerID
	attached bool
}

// NewManager creates a manager for opts.Group. Call Attach to start
// receiving add and close events.
func NewManager(bus *events.Bus, opts Options, clock countdown.Clock, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = countdown.RealClock{}
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}
	return &Manager{
		opts:   opts,
		bus:    bus,
		clock:  clock,
		logger: logger.With("group", opts.Group),
	}
}

// Attach subscribes the manager to add and close events.
func (m *Manager) Attach() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attached {
		return
	}
	m.addID = m.bus.On(events.EventAdd, m.handleAdd)
	m.closeID = m.bus.On(events.EventClose, m.handleClose)
	m.attached = true
	m.logger.Debug("queue attached")
}

// Detach unsubscribes from the bus. Queued items and their timers are
// left alone; use Stop to also clear them.
func (m *Manager) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.attached {
		return
	}
	m.bus.Off(events.EventAdd, m.addID)
	m.bus.Off(events.EventClose, m.closeID)
	m.attached = false
	m.logger.Debug("queue detached")
}

// Stop detaches the manager and destroys everything it still shows.
func (m *Manager) Stop() {
	m.Detach()
	m.DestroyAll()
}

func (m *Manager) handleAdd(ev events.Event) {
	switch req := ev.Payload.(type) {
	case model.Request:
		m.Add(req)
	case *model.Request:
		if req != nil {
			m.Add(*req)
		}
	case string:
		m.Add(model.TextRequest(req))
	default:
		m.logger.Debug("ignoring add event with unexpected payload", "payload", ev.Payload)
	}
}

func (m *Manager) handleClose(ev events.Event) {
	var id uint64
	switch v := ev.Payload.(type) {
	case uint64:
		id = v
	case uint32:
		id = uint64(v)
	case int:
		if v < 0 {
			return
		}
		id = uint64(v)
	case int64:
		if v < 0 {
			return
		}
		id = uint64(v)
	default:
		m.logger.Debug("ignoring close event with unexpected payload", "payload", ev.Payload)
		return
	}
	m.Close(id)
}

// Add queues a request. It returns the created item and true, or false
// when the request belongs to another group, was a clear request, or was
// suppressed as a duplicate.
func (m *Manager) Add(req model.Request) (model.Item, bool) {
	m.mu.Lock()

	if req.Group != m.opts.Group {
		m.mu.Unlock()
		return model.Item{}, false
	}

	if req.IsClear() {
		out := m.destroyAllLocked(ReasonCleared)
		m.enqueueLocked(out)
		m.mu.Unlock()
		m.flush()
		return model.Item{}, false
	}

	eff := m.opts.resolve(req)
	if eff.ignoreDuplicates && m.hasActiveDuplicateLocked(req.DedupeKey()) {
		m.mu.Unlock()
		m.logger.Debug("duplicate suppressed", "title", req.Title)
		return model.Item{}, false
	}

	id := req.ID
	if id == 0 {
		id = model.NextID()
	}
	e := &entry{item: model.Item{
		ID:        id,
		Title:     req.Title,
		Text:      req.Text,
		Type:      req.Type,
		Group:     m.opts.Group,
		State:     model.StateIdle,
		Duration:  eff.duration,
		Speed:     eff.speed,
		Length:    eff.duration + 2*eff.speed,
		Data:      req.Data,
		CreatedAt: m.clock.Now(),
	}}
	if !e.item.Sticky() {
		e.timer = countdown.New(m.clock, e.item.Length, func() { m.expire(e) })
	}

	direction := m.opts.Direction()
	if direction {
		m.list = append(m.list, e)
	} else {
		m.list = append([]*entry{e}, m.list...)
	}

	out := []outgoing{{name: events.EventCreated, payload: e.item}}
	if m.opts.Max > 0 {
		active := m.activeLocked()
		if len(active) > m.opts.Max {
			victim := active[len(active)-1]
			if direction {
				victim = active[0]
			}
			out = append(out, m.destroyLocked(victim, ReasonEvicted)...)
		}
	}
	item := e.item
	m.enqueueLocked(out)
	m.mu.Unlock()

	m.logger.Debug("item queued", "id", item.ID, "type", item.Type, "length", item.Length)
	m.flush()
	return item, true
}

// Close destroys the first item carrying id, whether or not it is still
// active. Unknown ids are ignored.
func (m *Manager) Close(id uint64) bool {
	m.mu.Lock()
	var out []outgoing
	for _, e := range m.list {
		if e.item.ID == id {
			out = m.destroyLocked(e, ReasonClosed)
			break
		}
	}
	m.enqueueLocked(out)
	m.mu.Unlock()

	m.flush()
	return len(out) > 0
}

// Destroy removes an active item on behalf of the renderer.
func (m *Manager) Destroy(id uint64) bool {
	m.mu.Lock()
	var out []outgoing
	if e := m.findActiveLocked(id); e != nil {
		out = m.destroyLocked(e, ReasonDismissed)
	}
	m.enqueueLocked(out)
	m.mu.Unlock()

	m.flush()
	return len(out) > 0
}

// DestroyAll destroys every active item.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	out := m.destroyAllLocked(ReasonCleared)
	m.enqueueLocked(out)
	m.mu.Unlock()

	m.flush()
}

// Click publishes a click for an active item and destroys it when the
// region closes on click.
func (m *Manager) Click(id uint64) bool {
	m.mu.Lock()
	e := m.findActiveLocked(id)
	if e == nil {
		m.mu.Unlock()
		return false
	}
	out := []outgoing{{name: events.EventClick, payload: e.item}}
	if m.opts.CloseOnClick {
		out = append(out, m.destroyLocked(e, ReasonDismissed)...)
	}
	m.enqueueLocked(out)
	m.mu.Unlock()

	m.flush()
	return true
}

// PauseTimeout freezes an item's countdown while the pointer hovers it.
// It does nothing unless the region pauses on hover.
func (m *Manager) PauseTimeout(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opts.PauseOnHover {
		return
	}
	if e := m.findActiveLocked(id); e != nil && e.timer != nil {
		e.timer.Pause()
	}
}

// ResumeTimeout restarts a paused countdown.
func (m *Manager) ResumeTimeout(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opts.PauseOnHover {
		return
	}
	if e := m.findActiveLocked(id); e != nil && e.timer != nil {
		e.timer.Resume()
	}
}

// AfterLeave prunes destroyed items once their exit transition finished.
func (m *Manager) AfterLeave() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.compactLocked()
}

// Active returns copies of the active items in display order.
func (m *Manager) Active() []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]model.Item, 0, len(m.list))
	for _, e := range m.list {
		if e.item.IsActive() {
			items = append(items, e.item)
		}
	}
	return items
}

// Items returns copies of the whole backing list in display order,
// including destroyed items still waiting for AfterLeave.
func (m *Manager) Items() []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]model.Item, 0, len(m.list))
	for _, e := range m.list {
		items = append(items, e.item)
	}
	return items
}

// Len returns the size of the backing list, including destroyed items
// that have not been compacted yet.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.list)
}

// ActiveCount returns the number of active items.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.activeLocked())
}

// Remaining reports how long an active item has left. Sticky items
// report false.
func (m *Manager) Remaining(id uint64) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findActiveLocked(id)
	if e == nil || e.timer == nil {
		return 0, false
	}
	return e.timer.Remaining(), true
}

// Paused reports whether an active item's countdown is paused.
func (m *Manager) Paused(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findActiveLocked(id)
	return e != nil && e.timer != nil && e.timer.Paused()
}

// Group returns the group this manager serves.
func (m *Manager) Group() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.opts.Group
}

// Options returns the current options.
func (m *Manager) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.opts
}

// UpdateOptions swaps the options used for future requests. The group
// cannot change, and lowering max does not evict items already shown.
func (m *Manager) UpdateOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.Group != m.opts.Group {
		m.logger.Warn("ignoring group change on update", "new_group", opts.Group)
		opts.Group = m.opts.Group
	}
	deferred := m.opts.DefersCompaction()
	m.opts = opts
	if deferred && !opts.DefersCompaction() {
		m.compactLocked()
	}
	m.logger.Debug("options updated", "max", opts.Max, "position", opts.Position.String())
}

// NewCoordinator builds an animation coordinator wired to this manager's
// deferred compaction.
func (m *Manager) NewCoordinator(transport animation.Transport) *animation.Coordinator {
	opts := m.Options()
	return animation.NewCoordinator(opts.AnimationType, opts.Animation, opts.Speed, transport, m.AfterLeave, m.logger)
}

func (m *Manager) expire(e *entry) {
	m.mu.Lock()
	out := m.destroyLocked(e, ReasonExpired)
	m.enqueueLocked(out)
	m.mu.Unlock()

	m.flush()
}

func (m *Manager) destroyLocked(e *entry, reason Reason) []outgoing {
	if !e.item.IsActive() {
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.item.State = model.StateDestroyed
	if !m.opts.DefersCompaction() {
		m.compactLocked()
	}
	return []outgoing{{name: events.EventDestroy, payload: DestroyEvent{Item: e.item, Reason: reason}}}
}

func (m *Manager) destroyAllLocked(reason Reason) []outgoing {
	var out []outgoing
	for _, e := range m.activeLocked() {
		out = append(out, m.destroyLocked(e, reason)...)
	}
	return out
}

func (m *Manager) compactLocked() {
	kept := m.list[:0:0]
	for _, e := range m.list {
		if e.item.IsActive() {
			kept = append(kept, e)
		}
	}
	m.list = kept
}

func (m *Manager) activeLocked() []*entry {
	active := make([]*entry, 0, len(m.list))
	for _, e := range m.list {
		if e.item.IsActive() {
			active = append(active, e)
		}
	}
	return active
}

func (m *Manager) findActiveLocked(id uint64) *entry {
	for _, e := range m.list {
		if e.item.ID == id && e.item.IsActive() {
			return e
		}
	}
	return nil
}

func (m *Manager) hasActiveDuplicateLocked(key string) bool {
	for _, e := range m.list {
		if e.item.IsActive() && e.item.DedupeKey() == key {
			return true
		}
	}
	return false
}

func (m *Manager) enqueueLocked(out []outgoing) {
	m.pending = append(m.pending, out...)
}

// flush publishes queued events. A caller that finds another goroutine
// already draining returns at once; its events follow in queue order.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.pending) > 0 {
		o := m.pending[0]
		m.pending[0] = outgoing{}
		m.pending = m.pending[1:]
		m.mu.Unlock()
		m.bus.Emit(o.name, o.payload)
		m.mu.Lock()
	}
	m.pending = nil
	m.draining = false
	m.mu.Unlock()
}
