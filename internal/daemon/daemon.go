package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmylchreest/toasty/internal/audio"
	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/dbus"
	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/httpapi"
	"github.com/jmylchreest/toasty/internal/metrics"
	"github.com/jmylchreest/toasty/internal/notify"
)

// Options configures a Daemon.
type Options struct {
	Config *config.Config
	// ConfigPath is watched for hot reload; empty disables watching.
	ConfigPath string
	// Monitor observes notification traffic instead of owning the bus
	// name, and keeps audio off so it can run next to another daemon.
	Monitor   bool
	Clock     countdown.Clock
	AudioSink audio.Sink
	Logger    *slog.Logger
	// Version is reported by GetServerInformation.
	Version string
}

// Daemon owns every long-lived component.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	bus      *events.Bus
	regions  *display.Regions
	notifier *notify.Notifier
	internal *InternalNotifier
	registry *prometheus.Registry
	stream   *httpapi.Stream

	server  *dbus.Server
	monitor *dbus.Monitor
	audio   *audio.Manager
	watcher *config.Watcher

	mu       sync.Mutex
	cfg      *config.Config
	cancel   context.CancelFunc
	httpDone chan error
	started  bool
}

// New builds the daemon and applies the initial configuration. Nothing
// touches the session bus or the network until Start.
func New(opts Options) *Daemon {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Clock == nil {
		opts.Clock = countdown.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cfg := opts.Config

	bus := events.NewBus(opts.Logger)
	regions := display.NewRegions(bus, opts.Clock, opts.Logger)
	regions.Apply(cfg.Regions())
	notifier := notify.New(bus, opts.Logger)

	d := &Daemon{
		opts:     opts,
		logger:   opts.Logger,
		bus:      bus,
		regions:  regions,
		notifier: notifier,
		internal: NewInternalNotifier(notifier, cfg.DBus.DefaultGroup, opts.Clock, opts.Logger),
		registry: prometheus.NewRegistry(),
		stream:   httpapi.NewStream(opts.Logger),
		cfg:      cfg,
	}

	metrics.New(d.registry).Attach(bus)
	d.stream.Attach(bus)

	serverOpts := dbusOptions(cfg)
	if opts.Monitor {
		d.monitor = dbus.NewMonitor(bus, serverOpts, opts.Logger)
	} else {
		d.server = dbus.NewServer(bus, serverOpts, opts.Logger)
		if opts.Version != "" {
			info := dbus.DefaultServerInfo()
			info.Version = opts.Version
			d.server.SetServerInfo(info)
		}
		d.audio = audio.NewManager(cfg, opts.AudioSink, opts.Logger)
		d.audio.Attach(bus)
	}
	return d
}

func dbusOptions(cfg *config.Config) dbus.ServerOptions {
	return dbus.ServerOptions{
		DefaultGroup: cfg.DBus.DefaultGroup,
		RateLimit:    cfg.DBus.RateLimit,
		Burst:        cfg.DBus.Burst,
	}
}

// Bus returns the shared event bus.
func (d *Daemon) Bus() *events.Bus { return d.bus }

// Regions returns the notification regions.
func (d *Daemon) Regions() *display.Regions { return d.regions }

// Notifier returns the producer API.
func (d *Daemon) Notifier() *notify.Notifier { return d.notifier }

// Registry returns the Prometheus registry the instruments live in.
func (d *Daemon) Registry() *prometheus.Registry { return d.registry }

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Start connects the configured ingresses and listeners.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errors.New("daemon already started")
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	cfg := d.cfg
	d.mu.Unlock()

	if d.audio != nil {
		d.audio.Start(ctx)
	}

	switch {
	case d.monitor != nil:
		if err := d.monitor.Start(); err != nil {
			return fmt.Errorf("failed to start D-Bus monitor: %w", err)
		}
	case cfg.DBus.Enabled:
		if err := d.server.Start(); err != nil {
			return fmt.Errorf("failed to start D-Bus server: %w", err)
		}
	}

	if cfg.HTTP.Enabled {
		d.startHTTP(ctx, cfg)
	}

	if d.opts.ConfigPath != "" {
		d.startWatcher()
	}

	d.logger.Info("toasty started",
		"groups", d.regions.Groups(),
		"monitor", d.opts.Monitor,
		"dbus", cfg.DBus.Enabled,
		"http", cfg.HTTP.Enabled,
	)
	return nil
}

func (d *Daemon) startHTTP(ctx context.Context, cfg *config.Config) {
	deps := httpapi.Deps{
		Notifier: d.notifier,
		Regions:  d.regions,
		Stream:   d.stream,
		Logger:   d.logger,

		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}
	if cfg.Metrics.Enabled {
		deps.Gatherer = d.registry
	}

	done := make(chan error, 1)
	d.mu.Lock()
	d.httpDone = done
	d.mu.Unlock()

	go func() {
		err := httpapi.Serve(ctx, cfg.HTTP.Addr, httpapi.NewRouter(deps), d.logger)
		if err != nil {
			d.logger.Error("http server failed", "addr", cfg.HTTP.Addr, "error", err)
		}
		done <- err
	}()
}

func (d *Daemon) startWatcher() {
	w, err := config.NewWatcher(d.opts.ConfigPath, d.ApplyConfig, d.logger)
	if err != nil {
		d.logger.Warn("config hot reload disabled", "error", err)
		return
	}
	w.SetErrorCallback(d.internal.ConfigError)
	if err := w.Start(); err != nil {
		d.logger.Warn("config hot reload disabled", "path", d.opts.ConfigPath, "error", err)
		_ = w.Stop()
		return
	}
	d.mu.Lock()
	d.watcher = w
	d.mu.Unlock()
}

// ApplyConfig swaps in a reloaded configuration. Listener addresses and
// the dbus/http switches only take effect on restart.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	d.regions.Apply(cfg.Regions())
	d.stream.SetAllowedOrigins(cfg.HTTP.AllowedOrigins)
	if d.server != nil {
		d.server.SetOptions(dbusOptions(cfg))
	}
	if d.audio != nil {
		d.audio.UpdateConfig(cfg)
	}
	d.internal.SetGroup(cfg.DBus.DefaultGroup)
	d.internal.ConfigReloaded()
}

// Stop shuts every component down and waits for the HTTP listener.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	watcher := d.watcher
	httpDone := d.httpDone
	d.watcher = nil
	d.httpDone = nil
	d.mu.Unlock()

	if watcher != nil {
		_ = watcher.Stop()
	}
	if d.monitor != nil {
		if err := d.monitor.Stop(); err != nil {
			d.logger.Warn("error stopping monitor", "error", err)
		}
	}
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			d.logger.Warn("error stopping D-Bus server", "error", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if httpDone != nil {
		<-httpDone
	}
	if d.audio != nil {
		d.audio.Stop()
	}
	d.regions.Stop()
	d.logger.Info("toasty stopped")
}
