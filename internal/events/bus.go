package events

import (
	"log/slog"
	"sync"
)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

// Event names shared by producers, queue managers and observers.
const (
	// EventAdd carries a model.Request from a producer.
	EventAdd = "add"
	// EventClose carries the uint64 id of an item to destroy.
	EventClose = "close"
	// EventCreated carries the model.Item a manager just queued.
	EventCreated = "created"
	// EventDestroy carries a display.DestroyEvent.
	EventDestroy = "destroy"
	// EventClick carries the model.Item the user clicked.
	EventClick = "click"
)

// Event is delivered to handlers. Named and wildcard handlers share the
// same signature; Name tells wildcard handlers what was emitted.
type Event struct {
	Name    string
	Payload any
}

// Handler receives emitted events.
type Handler func(Event)

// HandlerID identifies a registration so it can be removed with Off.
type HandlerID uint64

type registration struct {
	id      HandlerID
	handler Handler
}

// Bus is a synchronous publish/subscribe channel.
// Handlers run on the emitting goroutine in registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   HandlerID
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]registration),
		logger:   logger,
	}
}

// On registers a handler for name and returns its id.
func (b *Bus) On(name string, h Handler) HandlerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], registration{id: id, handler: h})
	return id
}

// Off removes a previously registered handler.
// Returns false if no handler with that id is registered under name.
func (b *Bus) Off(name string, id HandlerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[name]
	for i, r := range regs {
		if r.id != id {
			continue
		}
		// Build a new slice so snapshots held by in-flight emits stay intact
		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, name)
		} else {
			b.handlers[name] = next
		}
		return true
	}
	return false
}

// Emit invokes every handler registered for name, then every wildcard handler.
// Handlers may call On/Off while being invoked.
func (b *Bus) Emit(name string, payload any) {
	b.mu.RLock()
	named := append([]registration(nil), b.handlers[name]...)
	var wild []registration
	if name != Wildcard {
		wild = append([]registration(nil), b.handlers[Wildcard]...)
	}
	b.mu.RUnlock()

	if len(named) == 0 && len(wild) == 0 {
		b.logger.Debug("event emitted with no handlers", "event", name)
		return
	}

	ev := Event{Name: name, Payload: payload}
	for _, r := range named {
		r.handler(ev)
	}
	for _, r := range wild {
		r.handler(ev)
	}
}

// HandlerCount returns the number of handlers registered under name.
func (b *Bus) HandlerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
