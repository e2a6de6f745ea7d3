package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/notify"
)

// Level indicates the severity of an internal notification.
type Level int

const (
	// LevelInfo is for informational messages.
	LevelInfo Level = iota
	// LevelWarning is for warnings.
	LevelWarning
	// LevelError is for errors.
	LevelError
)

// Type returns the notification type used for styling and sounds.
func (l Level) Type() string {
	switch l {
	case LevelWarning:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

const (
	selfNotifyInterval = 5 * time.Second
	selfNotifyDuration = 5 * time.Second
)

// InternalNotifier reports toasty's own events, such as config reloads,
// as notifications in a region. The same key is not repeated within the
// minimum interval.
type InternalNotifier struct {
	mu       sync.Mutex
	notifier *notify.Notifier
	clock    countdown.Clock
	logger   *slog.Logger
	group    string
	enabled  bool

	minInterval time.Duration
	last        map[string]time.Time
}

// NewInternalNotifier creates a notifier that posts into group.
func NewInternalNotifier(n *notify.Notifier, group string, clock countdown.Clock, logger *slog.Logger) *InternalNotifier {
	if clock == nil {
		clock = countdown.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		notifier:    n,
		clock:       clock,
		logger:      logger,
		group:       group,
		enabled:     true,
		minInterval: selfNotifyInterval,
		last:        make(map[string]time.Time),
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetGroup changes the target region.
func (n *InternalNotifier) SetGroup(group string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.group = group
}

// Notify posts a notification unless key was used within the interval.
func (n *InternalNotifier) Notify(key, title, text string, level Level) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return
	}
	now := n.clock.Now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return
	}
	n.last[key] = now
	group := n.group
	n.mu.Unlock()

	n.notifier.Notify(model.Request{
		ID:    model.NextID(),
		Group: group,
		Title: title,
		Text:  text,
		Type:  level.Type(),
	}.WithDuration(selfNotifyDuration))
}

// ConfigReloaded reports a successful hot reload.
func (n *InternalNotifier) ConfigReloaded() {
	n.Notify("config", "Configuration reloaded", "", LevelInfo)
}

// ConfigError reports a rejected config edit.
func (n *InternalNotifier) ConfigError(err error) {
	n.Notify("config", "Configuration error", err.Error(), LevelError)
}
