package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/dbus"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/model"
)

const queueSize = 16

// Manager plays the configured sound for every queued notification.
// Decoding and playback run on a single worker so bus handlers never
// block on disk.
type Manager struct {
	sink    Sink
	logger  *slog.Logger
	watcher *fileWatcher

	mu      sync.RWMutex
	cfg     *config.Config
	handler events.HandlerID
	bus     *events.Bus

	queue   chan string
	done    chan struct{}
	stopped bool
}

// NewManager creates a manager playing through sink. A nil sink uses a
// speaker-backed Player.
func NewManager(cfg *config.Config, sink Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NewPlayer(logger)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Manager{
		sink:   sink,
		logger: logger,
		queue:  make(chan string, queueSize),
	}
	if w, err := newFileWatcher(sink.Invalidate, logger); err != nil {
		logger.Warn("sound files will not be reloaded on change", "error", err)
	} else {
		m.watcher = w
	}
	m.UpdateConfig(cfg)
	return m
}

// UpdateConfig applies a reloaded configuration.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	m.sink.SetVolume(float64(cfg.Audio.Volume) / 100.0)
	if m.watcher != nil {
		for _, path := range cfg.Audio.Sounds {
			m.watcher.Watch(config.ExpandPath(path))
		}
	}
	m.logger.Debug("audio config applied", "enabled", cfg.Audio.Enabled, "sounds", len(cfg.Audio.Sounds))
}

// Attach subscribes to created events on bus.
func (m *Manager) Attach(bus *events.Bus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bus != nil {
		return
	}
	m.bus = bus
	m.handler = bus.On(events.EventCreated, m.handleCreated)
}

// Detach removes the subscription.
func (m *Manager) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bus == nil {
		return
	}
	m.bus.Off(events.EventCreated, m.handler)
	m.bus = nil
}

// Start runs the playback worker until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.done != nil || m.stopped {
		m.mu.Unlock()
		return
	}
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-m.queue:
			if !ok {
				return
			}
			if err := m.sink.Play(path); err != nil {
				m.logger.Warn("failed to play sound", "path", path, "error", err)
			}
		}
	}
}

// Stop detaches from the bus, ends the worker and releases the sink.
func (m *Manager) Stop() {
	m.Detach()

	m.mu.Lock()
	done := m.done
	if done != nil && !m.stopped {
		close(m.queue)
	}
	m.stopped = true
	m.mu.Unlock()

	if done != nil {
		<-done
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	m.sink.Close()
}

// SoundFor returns the file to play for item, or "" when it should be
// silent.
func (m *Manager) SoundFor(item model.Item) string {
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	if !cfg.Audio.Enabled {
		return ""
	}
	if data, ok := item.Data.(map[string]any); ok {
		if suppress, _ := data[dbus.DataSuppress].(bool); suppress {
			return ""
		}
		if file, _ := data[dbus.DataSoundFile].(string); file != "" {
			return config.ExpandPath(file)
		}
	}
	return cfg.SoundFor(item.Type)
}

func (m *Manager) handleCreated(ev events.Event) {
	item, ok := ev.Payload.(model.Item)
	if !ok {
		return
	}
	path := m.SoundFor(item)
	if path == "" {
		return
	}
	if !Supported(path) {
		m.logger.Warn("unsupported sound file", "path", path)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.done == nil || m.stopped {
		return
	}
	select {
	case m.queue <- path:
	default:
		m.logger.Debug("sound queue full, dropping", "id", item.ID, "path", path)
	}
}

