// Package tui renders notification regions in the terminal with BubbleTea.
// It is a renderer for the display package: moving the selection is
// hovering, enter is a click, and leave transitions drive compaction.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toasty/internal/animation"
	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

const (
	refreshInterval = 250 * time.Millisecond
	inboxSize       = 256
)

// busMsg wraps an event observed on the bus.
type busMsg struct {
	ev events.Event
}

// afterLeaveMsg reports that the leave transition of an item finished.
type afterLeaveMsg struct {
	group string
	id    uint64
}

// inboxMsg carries a message that arrived through the inbox channel.
type inboxMsg struct {
	msg tea.Msg
}

type tickMsg time.Time

// card is the animated element for one item.
type card struct {
	id     uint64
	height int
}

func (c *card) Height() int { return c.height }

// target identifies the hovered item.
type target struct {
	group string
	id    uint64
}

// Options configures the renderer.
type Options struct {
	Regions  *display.Regions
	Clock    countdown.Clock
	ShowHelp bool
	Logger   *slog.Logger
}

// Model is the BubbleTea model.
type Model struct {
	regions   *display.Regions
	clock     countdown.Clock
	transport *animation.TimedTransport
	logger    *slog.Logger

	// inbox receives bus events and transition completions from other
	// goroutines.
	inbox chan tea.Msg
	cards map[uint64]*card
	hover *target

	// leaving holds items whose exit transition has started. unseen holds
	// destroyed items the sweep found before their destroy event arrived.
	leaving map[uint64]bool
	unseen  map[uint64]time.Time

	keys     KeyMap
	help     help.Model
	showHelp bool
	width    int
	height   int
}

// New creates a renderer for the regions in opts.
func New(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = countdown.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := Model{
		regions:   opts.Regions,
		clock:     opts.Clock,
		transport: animation.NewTimedTransport(opts.Clock),
		logger:    opts.Logger,
		inbox:     make(chan tea.Msg, inboxSize),
		cards:     make(map[uint64]*card),
		leaving:   make(map[uint64]bool),
		unseen:    make(map[uint64]time.Time),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		showHelp:  opts.ShowHelp,
	}
	return m
}

// Listen subscribes the renderer to every event on bus.
func (m Model) Listen(bus *events.Bus) events.HandlerID {
	return bus.On(events.Wildcard, func(ev events.Event) {
		m.push(busMsg{ev: ev})
	})
}

// push delivers msg without blocking the emitter. Dropped messages are
// recovered by the periodic sweep.
func (m Model) push(msg tea.Msg) {
	select {
	case m.inbox <- msg:
	default:
		m.logger.Debug("renderer inbox full, message dropped")
	}
}

// Init starts the inbox reader and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForMsg, tick())
}

// waitForMsg blocks until something arrives in the inbox.
func (m Model) waitForMsg() tea.Msg {
	return inboxMsg{msg: <-m.inbox}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case inboxMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, m.waitForMsg)

	case busMsg:
		cmd := m.handleEvent(msg.ev)
		return m, cmd

	case afterLeaveMsg:
		m.afterLeave(msg.group, msg.id)
		return m, nil

	case tickMsg:
		m.sweep()
		return m, tick()
	}
	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.setHover(nil)
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		m.moveHover(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveHover(1)

	case key.Matches(msg, m.keys.Leave):
		m.setHover(nil)

	case key.Matches(msg, m.keys.Click):
		if mgr, id, ok := m.hovered(); ok {
			mgr.Click(id)
		}

	case key.Matches(msg, m.keys.Dismiss):
		if mgr, id, ok := m.hovered(); ok {
			mgr.Destroy(id)
		}

	case key.Matches(msg, m.keys.ClearAll):
		if mgr, _, ok := m.hovered(); ok {
			mgr.DestroyAll()
		} else {
			for _, mgr := range m.regions.Managers() {
				mgr.DestroyAll()
			}
		}
	}
	return m, nil
}

func (m *Model) handleEvent(ev events.Event) tea.Cmd {
	switch ev.Name {
	case events.EventCreated:
		item, ok := ev.Payload.(model.Item)
		if !ok {
			return nil
		}
		c := &card{id: item.ID, height: cardHeight(item)}
		m.cards[item.ID] = c
		if mgr, ok := m.regions.Get(item.Group); ok {
			mgr.NewCoordinator(m.transport).Enter(c, nil)
		}

	case events.EventDestroy:
		de, ok := ev.Payload.(display.DestroyEvent)
		if !ok {
			return nil
		}
		return m.leave(de.Item)
	}
	return nil
}

// leave starts the exit transition for item. Velocity regions animate
// through the transport and compact once it completes; CSS regions
// signal after-leave once the speed has elapsed.
func (m *Model) leave(item model.Item) tea.Cmd {
	if m.hover != nil && m.hover.id == item.ID {
		m.hover = nil
	}
	mgr, ok := m.regions.Get(item.Group)
	if !ok {
		delete(m.cards, item.ID)
		return nil
	}

	coord := mgr.NewCoordinator(m.transport)
	if coord.DefersCompaction() {
		c, ok := m.cards[item.ID]
		if !ok {
			c = &card{id: item.ID, height: cardHeight(item)}
			m.cards[item.ID] = c
		}
		m.leaving[item.ID] = true
		delete(m.unseen, item.ID)
		coord.Leave(c, func() {
			m.push(afterLeaveMsg{group: item.Group, id: item.ID})
		})
		return nil
	}

	delete(m.cards, item.ID)
	group, id := item.Group, item.ID
	return tea.Tick(mgr.Options().Speed, func(time.Time) tea.Msg {
		return afterLeaveMsg{group: group, id: id}
	})
}

func (m Model) afterLeave(group string, id uint64) {
	delete(m.cards, id)
	delete(m.leaving, id)
	if mgr, ok := m.regions.Get(group); ok {
		mgr.NewCoordinator(m.transport).AfterLeave()
	}
}

// sweep compacts deferred regions whose leave transitions are all done
// and forgets cards of items that no longer exist. A destroyed item whose
// leave has not started yet gets one speed of grace, since its destroy
// event may still be queued in the inbox.
func (m Model) sweep() {
	now := m.clock.Now()
	known := make(map[uint64]bool)
	for _, mgr := range m.regions.Managers() {
		items := mgr.Items()
		grace := max(mgr.Options().Speed, refreshInterval)
		animating := false
		for _, item := range items {
			known[item.ID] = true
			if item.IsActive() {
				continue
			}
			if !m.leaving[item.ID] {
				first, ok := m.unseen[item.ID]
				if !ok {
					first = now
					m.unseen[item.ID] = now
				}
				if now.Sub(first) < grace {
					animating = true
				}
				continue
			}
			if c, ok := m.cards[item.ID]; ok {
				if _, running := m.transport.Current(c); running {
					animating = true
				}
			}
		}
		if !animating && len(items) > mgr.ActiveCount() {
			mgr.AfterLeave()
		}
	}
	for id := range m.cards {
		if !known[id] {
			delete(m.cards, id)
		}
	}
	for id := range m.leaving {
		if !known[id] {
			delete(m.leaving, id)
		}
	}
	for id := range m.unseen {
		if !known[id] {
			delete(m.unseen, id)
		}
	}
}

// targets lists every active item in render order.
func (m Model) targets() []target {
	var out []target
	for _, mgr := range m.regions.Managers() {
		for _, item := range mgr.Active() {
			out = append(out, target{group: item.Group, id: item.ID})
		}
	}
	return out
}

func (m *Model) moveHover(delta int) {
	all := m.targets()
	if len(all) == 0 {
		m.setHover(nil)
		return
	}

	idx := -1
	if m.hover != nil {
		for i, t := range all {
			if t == *m.hover {
				idx = i
				break
			}
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(all) - 1
	default:
		idx = (idx + delta + len(all)) % len(all)
	}
	next := all[idx]
	m.setHover(&next)
}

// setHover moves the pointer: the previous item resumes and the new one
// pauses.
func (m *Model) setHover(next *target) {
	if m.hover != nil && (next == nil || *next != *m.hover) {
		if mgr, ok := m.regions.Get(m.hover.group); ok {
			mgr.ResumeTimeout(m.hover.id)
		}
	}
	if next != nil && (m.hover == nil || *next != *m.hover) {
		if mgr, ok := m.regions.Get(next.group); ok {
			mgr.PauseTimeout(next.id)
		}
	}
	m.hover = next
}

func (m Model) hovered() (*display.Manager, uint64, bool) {
	if m.hover == nil {
		return nil, 0, false
	}
	mgr, ok := m.regions.Get(m.hover.group)
	if !ok {
		return nil, 0, false
	}
	return mgr, m.hover.id, true
}

// RunOptions configures Run.
type RunOptions struct {
	Options
	Bus *events.Bus
}

// Run starts the renderer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts RunOptions) error {
	m := New(opts.Options)
	id := m.Listen(opts.Bus)
	defer opts.Bus.Off(events.Wildcard, id)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
