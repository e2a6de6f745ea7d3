// Package notify is the producer side of the bus: anything that wants a
// toast on screen goes through a Notifier.
package notify

import (
	"log/slog"

	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

// Notifier emits add and close events.
type Notifier struct {
	bus    *events.Bus
	logger *slog.Logger
}

// New creates a notifier publishing on bus.
func New(bus *events.Bus, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{bus: bus, logger: logger}
}

// Notify asks the manager of req.Group to show req.
func (n *Notifier) Notify(req model.Request) {
	n.logger.Debug("notify", "group", req.Group, "title", req.Title, "clear", req.IsClear())
	n.bus.Emit(events.EventAdd, req)
}

// Text shows an untitled notification in the default group.
func (n *Notifier) Text(text string) {
	n.Notify(model.TextRequest(text))
}

// Clear destroys every active item in group.
func (n *Notifier) Clear(group string) {
	n.Notify(model.Request{Group: group, Clear: true})
}

// Close destroys the item with id in whichever group holds it.
func (n *Notifier) Close(id uint64) {
	n.logger.Debug("close", "id", id)
	n.bus.Emit(events.EventClose, id)
}
