package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"

	// ErrNameRateLimited is returned to callers exceeding their rate.
	ErrNameRateLimited = DBusInterface + ".Error.RateLimited"
)

// ServerOptions configures the bridge.
type ServerOptions struct {
	DefaultGroup string
	RateLimit    float64 // per app, per second; 0 disables
	Burst        int
}

// Server implements the org.freedesktop.Notifications D-Bus interface on
// top of the event bus.
type Server struct {
	conn   *dbus.Conn
	bus    *events.Bus
	logger *slog.Logger

	mu           sync.RWMutex
	limiter      *appLimiter
	defaultGroup string
	issued       map[uint32]bool // D-Bus IDs currently shown
	nextID       func() uint64
	serverInfo   ServerInfo
	running      bool
	attached     bool
	destroyID    events.HandlerID
	clickID      events.HandlerID
}

// NewServer creates a server publishing on bus.
func NewServer(bus *events.Bus, opts ServerOptions, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bus:          bus,
		logger:       logger,
		limiter:      newAppLimiter(opts.RateLimit, opts.Burst),
		defaultGroup: opts.DefaultGroup,
		issued:       make(map[uint32]bool),
		nextID:       model.NextID,
		serverInfo:   DefaultServerInfo(),
	}
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *Server) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// SetOptions applies a reloaded configuration.
func (s *Server) SetOptions(opts ServerOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultGroup = opts.DefaultGroup
	s.limiter = newAppLimiter(opts.RateLimit, opts.Burst)
}

// Attach subscribes to destroy and click events so closures are signalled
// back to the clients that sent the notifications.
func (s *Server) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return
	}
	s.destroyID = s.bus.On(events.EventDestroy, s.handleDestroy)
	s.clickID = s.bus.On(events.EventClick, s.handleClick)
	s.attached = true
}

// Detach removes the bus subscriptions.
func (s *Server) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return
	}
	s.bus.Off(events.EventDestroy, s.destroyID)
	s.bus.Off(events.EventClick, s.clickID)
	s.attached = false
}

// Start connects to the session bus and exports the notification service.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.Attach()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name and detaches from the event bus.
func (s *Server) Stop() error {
	s.Detach()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *Server) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *Server) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.mu.RLock()
	info := s.serverInfo
	s.mu.RUnlock()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *Server) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	s.mu.RLock()
	limiter := s.limiter
	s.mu.RUnlock()

	if !limiter.Allow(appName) {
		s.logger.Warn("notification dropped by rate limit", "app_name", appName, "summary", summary)
		return 0, dbus.NewError(ErrNameRateLimited, []any{"too many notifications from " + appName})
	}

	n := &Notification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}
	return s.submit(n), nil
}

// submit queues n and returns its D-Bus ID.
func (s *Server) submit(n *Notification) uint32 {
	s.mu.Lock()
	id := n.ReplacesID
	replacing := id > 0 && s.issued[id]
	if !replacing {
		id = s.nextWireIDLocked()
	}
	// The replaced item closes silently; clients expect no signal for it.
	delete(s.issued, id)
	group := s.defaultGroup
	s.mu.Unlock()

	if replacing {
		s.bus.Emit(events.EventClose, uint64(id))
	}

	s.mu.Lock()
	s.issued[id] = true
	s.mu.Unlock()

	s.logger.Debug("Notify called",
		"app_name", n.AppName,
		"replaces_id", n.ReplacesID,
		"summary", n.Summary,
		"id", id,
	)
	s.bus.Emit(events.EventAdd, n.Request(uint64(id), group))
	return id
}

// CloseNotification closes a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
func (s *Server) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)

	if s.IsActive(id) {
		s.bus.Emit(events.EventClose, uint64(id))
	}
	return nil
}

// IsActive returns true if the notification ID is currently shown.
func (s *Server) IsActive(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issued[id]
}

func (s *Server) handleDestroy(ev events.Event) {
	de, ok := ev.Payload.(display.DestroyEvent)
	if !ok || de.Item.ID > uint64(^uint32(0)) {
		return
	}
	id := uint32(de.Item.ID)

	s.mu.Lock()
	known := s.issued[id]
	delete(s.issued, id)
	s.mu.Unlock()

	if !known {
		return
	}
	reason := CloseReasonFor(de.Reason)
	if err := s.EmitNotificationClosed(id, reason); err != nil {
		s.logger.Debug("NotificationClosed not sent", "id", id, "reason", reason.String(), "error", err)
	}
}

func (s *Server) handleClick(ev events.Event) {
	item, ok := ev.Payload.(model.Item)
	if !ok || !s.IsActive(uint32(item.ID)) {
		return
	}
	if err := s.EmitActionInvoked(uint32(item.ID), "default"); err != nil {
		s.logger.Debug("ActionInvoked not sent", "id", item.ID, "error", err)
	}
}

// nextWireIDLocked draws from the shared item id sequence, folded into
// the 32-bit wire format. Zero and ids still shown are skipped.
func (s *Server) nextWireIDLocked() uint32 {
	for {
		id := wireID(s.nextID())
		if id != 0 && !s.issued[id] {
			return id
		}
	}
}

func wireID(seq uint64) uint32 {
	return uint32(seq)
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
