package dbus

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// Message is a notification sent through Client.
type Message struct {
	AppName    string
	ReplacesID uint32
	Summary    string
	Body       string
	Group      string
	Type       string
	Urgency    byte
	// Timeout of zero uses the server default; Sticky overrides it.
	Timeout time.Duration
	Sticky  bool
}

// Hints builds the hint map for m.
func (m Message) Hints() map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(m.Urgency),
	}
	if m.Group != "" {
		hints[HintGroup] = dbus.MakeVariant(m.Group)
	}
	if m.Type != "" {
		hints[HintType] = dbus.MakeVariant(m.Type)
	}
	return hints
}

// ExpireTimeout returns the wire timeout: -1 default, 0 never, else ms.
func (m Message) ExpireTimeout() int32 {
	switch {
	case m.Sticky:
		return 0
	case m.Timeout <= 0:
		return -1
	default:
		return int32(m.Timeout.Milliseconds())
	}
}

// Client talks to whichever daemon owns org.freedesktop.Notifications.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient opens a private session bus connection.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Notify sends m and returns the id assigned by the server.
func (c *Client) Notify(ctx context.Context, m Message) (uint32, error) {
	appName := m.AppName
	if appName == "" {
		appName = "toasty"
	}

	var id uint32
	err := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		appName,
		m.ReplacesID,
		"",
		m.Summary,
		m.Body,
		[]string{},
		m.Hints(),
		m.ExpireTimeout(),
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// Close asks the server to close notification id.
func (c *Client) Close(ctx context.Context, id uint32) error {
	if err := c.obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	return nil
}

// ServerInformation queries the running server.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information: %w", err)
	}
	return info, nil
}

// Shutdown releases the connection.
func (c *Client) Shutdown() error {
	return c.conn.Close()
}
