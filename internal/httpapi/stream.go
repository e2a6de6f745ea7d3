package httpapi

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
)

// StreamMessage is one event as sent to websocket clients.
type StreamMessage struct {
	Event  string      `json:"event"`
	Item   *model.Item `json:"item,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

type streamClient struct {
	send chan StreamMessage
}

// Stream fans output events (created, destroy, click) out to websocket
// clients. A client that falls behind loses messages rather than
// blocking the bus.
type Stream struct {
	mu       sync.Mutex
	clients  map[*streamClient]struct{}
	logger   *slog.Logger
	origins  []string
	upgrader websocket.Upgrader
}

// NewStream creates an empty stream.
func NewStream(logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stream{
		clients: make(map[*streamClient]struct{}),
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// SetAllowedOrigins sets the origins allowed to open the stream, using the
// same patterns as the CORS policy ("*" or one wildcard per entry). With
// no entries only same-origin pages may connect.
func (s *Stream) SetAllowedOrigins(origins []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origins = make([]string, 0, len(origins))
	for _, o := range origins {
		s.origins = append(s.origins, strings.ToLower(o))
	}
}

// checkOrigin lets non-browser clients without an Origin header through.
func (s *Stream) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	s.mu.Lock()
	allowed := s.origins
	s.mu.Unlock()

	if len(allowed) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}

	origin = strings.ToLower(origin)
	for _, pattern := range allowed {
		if matchOrigin(pattern, origin) {
			s.logger.Debug("websocket origin allowed", "origin", origin)
			return true
		}
	}
	s.logger.Warn("websocket origin rejected", "origin", origin)
	return false
}

func matchOrigin(pattern, origin string) bool {
	if pattern == "*" {
		return true
	}
	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok {
		return pattern == origin
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) &&
		strings.HasSuffix(origin, suffix)
}

// Attach subscribes the stream to every event on bus.
func (s *Stream) Attach(bus *events.Bus) events.HandlerID {
	return bus.On(events.Wildcard, s.publish)
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func toMessage(ev events.Event) (StreamMessage, bool) {
	switch ev.Name {
	case events.EventCreated, events.EventClick:
		item, ok := ev.Payload.(model.Item)
		if !ok {
			return StreamMessage{}, false
		}
		return StreamMessage{Event: ev.Name, Item: &item}, true
	case events.EventDestroy:
		de, ok := ev.Payload.(display.DestroyEvent)
		if !ok {
			return StreamMessage{}, false
		}
		return StreamMessage{Event: ev.Name, Item: &de.Item, Reason: string(de.Reason)}, true
	default:
		return StreamMessage{}, false
	}
}

func (s *Stream) publish(ev events.Event) {
	msg, ok := toMessage(ev)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Debug("stream client lagging, message dropped", "event", msg.Event)
		}
	}
}

// ServeHTTP handles GET /api/v1/events by upgrading to a websocket.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &streamClient{send: make(chan StreamMessage, clientBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	// The reader only detects the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write", "error", err)
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
