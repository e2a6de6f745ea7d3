package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/layout"
	"github.com/jmylchreest/toasty/internal/model"
)

const (
	defaultWidth     = 80
	defaultHeight    = 24
	defaultCardWidth = 32
	minCardWidth     = 8
)

var typeColors = map[string]lipgloss.Color{
	"error":   lipgloss.Color("9"),
	"warn":    lipgloss.Color("11"),
	"warning": lipgloss.Color("11"),
	"success": lipgloss.Color("10"),
	"info":    lipgloss.Color("12"),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hoverColor  = lipgloss.Color("13")
	fadedColor  = lipgloss.Color("8")
)

// cardHeight is the rendered height of item: border, optional title and
// text lines, and the status line.
func cardHeight(item model.Item) int {
	h := 3
	if item.Title != "" {
		h++
	}
	if item.Text != "" {
		h++
	}
	return h
}

// View renders every region at its anchor.
func (m Model) View() string {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	now := m.clock.Now()

	top := m.band(layout.Top, width, now)
	bottom := m.band(layout.Bottom, width, now)
	footer := ""
	if m.showHelp {
		footer = m.help.View(m.keys)
	}

	var lines []string
	lines = append(lines, splitLines(top)...)
	used := len(lines) + len(splitLines(bottom)) + len(splitLines(footer))
	for i := used; i < height; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, splitLines(bottom)...)
	lines = append(lines, splitLines(footer)...)
	return strings.Join(lines, "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// band renders the regions anchored to edge y as one horizontal strip.
func (m Model) band(y layout.Vertical, width int, now time.Time) string {
	var managers []*display.Manager
	for _, mgr := range m.regions.Managers() {
		pos := mgr.Options().Position
		if pos.IsBottom() == (y == layout.Bottom) {
			managers = append(managers, mgr)
		}
	}

	slots := make(map[layout.Horizontal][]*display.Manager)
	for _, mgr := range managers {
		x := mgr.Options().Position.X
		if x == "" {
			x = layout.Right
		}
		slots[x] = append(slots[x], mgr)
	}
	if len(slots) == 0 {
		return ""
	}
	maxWidth := width / len(slots)

	cols := make(map[layout.Horizontal]string, len(slots))
	for x, mgrs := range slots {
		var blocks []string
		for _, mgr := range mgrs {
			w := mgr.Options().Width.Cells(width, defaultCardWidth)
			w = max(min(w, maxWidth), minCardWidth)
			if block := m.renderRegion(mgr, w, now); block != "" {
				blocks = append(blocks, block)
			}
		}
		if len(blocks) > 0 {
			cols[x] = lipgloss.JoinVertical(lipgloss.Left, blocks...)
		}
	}
	if len(cols) == 0 {
		return ""
	}

	align := lipgloss.Top
	if y == layout.Bottom {
		align = lipgloss.Bottom
	}
	left, center, right := cols[layout.Left], cols[layout.Center], cols[layout.Right]
	wl, wc, wr := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)

	leftGap := 0
	if center != "" {
		leftGap = max((width-wc)/2-wl, 0)
	}
	rightGap := max(width-wl-leftGap-wc-wr, 0)

	parts := []string{left, spaces(leftGap), center, spaces(rightGap), right}
	return lipgloss.JoinHorizontal(align, parts...)
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}

// renderRegion stacks the cards of mgr in display order, including items
// still leaving.
func (m Model) renderRegion(mgr *display.Manager, width int, now time.Time) string {
	items := mgr.Items()
	if len(items) == 0 {
		return ""
	}
	cards := make([]string, 0, len(items))
	for _, item := range items {
		cards = append(cards, m.renderCard(mgr, item, width, now))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m Model) renderCard(mgr *display.Manager, item model.Item, width int, now time.Time) string {
	color, ok := typeColors[item.Type]
	if !ok {
		color = lipgloss.Color("7")
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width - 2)

	switch {
	case !item.IsActive():
		style = style.Faint(true).BorderForeground(fadedColor)
	case m.hover != nil && m.hover.id == item.ID && m.hover.group == item.Group:
		style = style.Border(lipgloss.ThickBorder()).BorderForeground(hoverColor)
	case m.entering(item.ID):
		style = style.Italic(true)
	}

	var body []string
	if item.Title != "" {
		body = append(body, titleStyle.Render(item.Title))
	}
	if item.Text != "" {
		body = append(body, item.Text)
	}
	body = append(body, statusStyle.Render(status(mgr, item, now)))
	return style.Render(strings.Join(body, "\n"))
}

// entering reports whether the enter transition of id is still running.
func (m Model) entering(id uint64) bool {
	c, ok := m.cards[id]
	if !ok {
		return false
	}
	_, running := m.transport.Current(c)
	return running
}

// status describes the lifetime of item, e.g. "3 seconds left".
func status(mgr *display.Manager, item model.Item, now time.Time) string {
	if !item.IsActive() {
		return "closing"
	}
	remaining, ok := mgr.Remaining(item.ID)
	if !ok {
		return "sticky"
	}
	s := humanize.RelTime(now, now.Add(remaining), "left", "overdue")
	if mgr.Paused(item.ID) {
		s = "paused · " + s
	}
	return s
}
