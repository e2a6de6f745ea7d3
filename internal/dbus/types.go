package dbus

import (
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/model"
)

// Hints understood on top of the freedesktop.org set.
const (
	// HintGroup routes a notification to a named region.
	HintGroup = "x-toasty-group"
	// HintType sets the notification type used for styling and sounds.
	HintType = "x-toasty-type"
)

// Urgency levels from the freedesktop.org specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Keys of the model.Item Data map filled by the bridge.
const (
	DataAppName   = "app_name"
	DataAppIcon   = "app_icon"
	DataCategory  = "category"
	DataUrgency   = "urgency"
	DataSoundFile = "sound_file"
	DataSuppress  = "suppress_sound"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the freedesktop.org specification.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// CloseReasonFor maps a queue destroy reason onto the wire value.
func CloseReasonFor(r display.Reason) CloseReason {
	switch r {
	case display.ReasonExpired:
		return CloseReasonExpired
	case display.ReasonDismissed:
		return CloseReasonDismissed
	case display.ReasonClosed, display.ReasonCleared:
		return CloseReasonClosed
	default:
		return CloseReasonUndefined
	}
}

// Notification represents an incoming D-Bus Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

func (n *Notification) hintString(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (n *Notification) hintBool(key string) bool {
	if v, ok := n.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Urgency extracts the urgency hint. Returns UrgencyNormal if not specified.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		switch u := v.Value().(type) {
		case byte:
			return u
		case int32:
			return byte(u)
		case uint32:
			return byte(u)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint.
func (n *Notification) Category() string {
	return n.hintString("category")
}

// SoundFile extracts the sound-file hint.
func (n *Notification) SoundFile() string {
	return n.hintString("sound-file")
}

// SuppressSound returns true if the suppress-sound hint is set.
func (n *Notification) SuppressSound() bool {
	return n.hintBool("suppress-sound")
}

// Group returns the target region, falling back to defaultGroup.
func (n *Notification) Group(defaultGroup string) string {
	if v, ok := n.Hints[HintGroup]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return defaultGroup
}

// Type returns the x-toasty-type hint, or a type derived from urgency:
// low is "info", critical is "error" and normal has no type.
func (n *Notification) Type() string {
	if t := strings.TrimSpace(n.hintString(HintType)); t != "" {
		return t
	}
	switch n.Urgency() {
	case UrgencyLow:
		return model.TypeInfo
	case UrgencyCritical:
		return model.TypeError
	default:
		return ""
	}
}

// Timeout maps expire_timeout onto a request duration. Nil means the
// region default; a negative duration means never expire.
func (n *Notification) Timeout() *time.Duration {
	var d time.Duration
	switch {
	case n.ExpireTimeout < 0:
		return nil
	case n.ExpireTimeout == 0:
		d = -time.Millisecond
	default:
		d = time.Duration(n.ExpireTimeout) * time.Millisecond
	}
	return &d
}

// Request converts the call into a queue request carrying id.
func (n *Notification) Request(id uint64, defaultGroup string) model.Request {
	data := map[string]any{
		DataAppName: n.AppName,
		DataUrgency: n.Urgency(),
	}
	if n.AppIcon != "" {
		data[DataAppIcon] = n.AppIcon
	}
	if c := n.Category(); c != "" {
		data[DataCategory] = c
	}
	if f := n.SoundFile(); f != "" {
		data[DataSoundFile] = f
	}
	if n.SuppressSound() {
		data[DataSuppress] = true
	}

	return model.Request{
		ID:       id,
		Group:    n.Group(defaultGroup),
		Title:    n.Summary,
		Text:     n.Body,
		Type:     n.Type(),
		Data:     data,
		Duration: n.Timeout(),
	}
}

// ServerCapabilities lists the capabilities advertised by toasty.
var ServerCapabilities = []string{
	"body",  // Support body text
	"sound", // Play sounds
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "toasty"
	Vendor      string // "toasty"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toasty",
		Vendor:      "toasty",
		Version:     "0.0.1", // Will be replaced by build-time version
		SpecVersion: "1.2",
	}
}
