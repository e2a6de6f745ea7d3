// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toasty/internal/animation"
	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/layout"
)

// Default configuration values.
const (
	DefaultHTTPAddr    = "127.0.0.1:9464"
	DefaultRateLimit   = 5.0
	DefaultBurst       = 10
	DefaultVolume      = 80
	DefaultLogLevel    = "info"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the toasty configuration.
type Config struct {
	Groups  []GroupConfig `toml:"groups" yaml:"groups"`
	DBus    DBusConfig    `toml:"dbus" yaml:"dbus"`
	HTTP    HTTPConfig    `toml:"http" yaml:"http"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	Audio   AudioConfig   `toml:"audio" yaml:"audio"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	TUI     TUIConfig     `toml:"tui" yaml:"tui"`
}

// GroupConfig describes one notification region.
// Unset fields fall back to display.DefaultOptions.
type GroupConfig struct {
	Name string `toml:"name" yaml:"name"`
	// Width is a number of px, "120px", "50%" or "auto".
	Width            any       `toml:"width,omitempty" yaml:"width,omitempty"`
	Reverse          bool      `toml:"reverse" yaml:"reverse"`
	Position         string    `toml:"position,omitempty" yaml:"position,omitempty"` // e.g. "top right", "bottom center"
	Classes          string    `toml:"classes,omitempty" yaml:"classes,omitempty"`
	AnimationType    string    `toml:"animation_type,omitempty" yaml:"animation_type,omitempty"` // "css" or "velocity"
	AnimationName    string    `toml:"animation_name,omitempty" yaml:"animation_name,omitempty"`
	Speed            *Duration `toml:"speed,omitempty" yaml:"speed,omitempty"`
	Duration         *Duration `toml:"duration,omitempty" yaml:"duration,omitempty"` // negative = never expire
	Delay            *Duration `toml:"delay,omitempty" yaml:"delay,omitempty"`
	Max              int       `toml:"max" yaml:"max"` // 0 = unlimited
	IgnoreDuplicates bool      `toml:"ignore_duplicates" yaml:"ignore_duplicates"`
	CloseOnClick     *bool     `toml:"close_on_click,omitempty" yaml:"close_on_click,omitempty"`
	PauseOnHover     bool      `toml:"pause_on_hover" yaml:"pause_on_hover"`
}

// DBusConfig controls the org.freedesktop.Notifications bridge.
type DBusConfig struct {
	Enabled      bool    `toml:"enabled" yaml:"enabled"`
	DefaultGroup string  `toml:"default_group" yaml:"default_group"`
	RateLimit    float64 `toml:"rate_limit" yaml:"rate_limit"` // notifications per second per app, 0 = unlimited
	Burst        int     `toml:"burst" yaml:"burst"`
}

// HTTPConfig controls the HTTP API listener.
type HTTPConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" yaml:"addr"`

	// AllowedOrigins are the browser origins allowed to call the API.
	// Patterns may contain one "*" wildcard.
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// MetricsConfig controls the Prometheus endpoint, served at /metrics on
// the HTTP listener.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool              `toml:"enabled" yaml:"enabled"`
	Volume  int               `toml:"volume" yaml:"volume"` // 0-100
	Sounds  map[string]string `toml:"sounds" yaml:"sounds"` // notification type -> sound file
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn, error
}

// TUIConfig holds terminal renderer settings.
type TUIConfig struct {
	ShowHelp bool `toml:"show_help" yaml:"show_help"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Groups: []GroupConfig{{Name: ""}},
		DBus: DBusConfig{
			Enabled:   true,
			RateLimit: DefaultRateLimit,
			Burst:     DefaultBurst,
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Addr:    DefaultHTTPAddr,

			AllowedOrigins: []string{
				"http://localhost:*",
				"http://127.0.0.1:*",
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  DefaultVolume,
			Sounds:  make(map[string]string),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		TUI: TUIConfig{
			ShowHelp: true,
		},
	}
}

// configHome returns XDG_CONFIG_HOME, falling back to ~/.config.
func configHome() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return dir
}

// ConfigPath returns the path to the config file.
// An existing config.toml, config.yaml or config.yml is preferred in that
// order; otherwise the TOML path is returned.
func ConfigPath() string {
	dir := filepath.Join(configHome(), "toasty")
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, "config.toml")
}

// StatePath returns the state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "toasty")
}

// LogPath returns the default log file path.
func LogPath() string {
	return filepath.Join(StatePath(), "toasty.log")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// A file that lists groups replaces the default group entirely.
	cfg.Groups = nil
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if len(cfg.Groups) == 0 {
		cfg.Groups = DefaultConfig().Groups
	}
	if cfg.Audio.Sounds == nil {
		cfg.Audio.Sounds = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed and writes atomically.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(isYAML(path))
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Marshal encodes the configuration as TOML, or YAML when asYAML is set.
func (c *Config) Marshal(asYAML bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if asYAML {
		data, err = yaml.Marshal(c)
	} else {
		data, err = toml.Marshal(c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate rejects values no region could work with.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if seen[g.Name] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalid, g.Name)
		}
		seen[g.Name] = true

		if g.Max < 0 {
			return fmt.Errorf("%w: group %q: max must not be negative, got %d", ErrInvalid, g.Name, g.Max)
		}
		switch animation.Type(g.AnimationType) {
		case "", animation.TypeCSS, animation.TypeVelocity:
		default:
			return fmt.Errorf("%w: group %q: unknown animation_type %q", ErrInvalid, g.Name, g.AnimationType)
		}
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100, got %d", ErrInvalid, c.Audio.Volume)
	}
	if c.DBus.RateLimit < 0 || c.DBus.Burst < 0 {
		return fmt.Errorf("%w: dbus rate_limit and burst must not be negative", ErrInvalid)
	}
	if c.DBus.Enabled && !seen[c.DBus.DefaultGroup] {
		return fmt.Errorf("%w: dbus default_group %q is not a configured group", ErrInvalid, c.DBus.DefaultGroup)
	}
	if c.Metrics.Enabled && !c.HTTP.Enabled {
		return fmt.Errorf("%w: metrics require the http listener to be enabled", ErrInvalid)
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http addr must not be empty", ErrInvalid)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Options resolves the group into display options.
func (g GroupConfig) Options() display.Options {
	opts := display.DefaultOptions()
	opts.Group = g.Name
	opts.Reverse = g.Reverse
	opts.Max = g.Max
	opts.IgnoreDuplicates = g.IgnoreDuplicates
	opts.PauseOnHover = g.PauseOnHover

	if g.Width != nil {
		opts.Width = layout.ParseSize(g.Width)
	}
	if g.Position != "" {
		opts.Position = layout.ParsePosition(g.Position)
	}
	if g.Classes != "" {
		opts.Classes = g.Classes
	}
	if g.AnimationType != "" {
		opts.AnimationType = animation.ParseType(g.AnimationType)
	}
	if g.AnimationName != "" {
		opts.AnimationName = g.AnimationName
	}
	if g.Speed != nil {
		opts.Speed = g.Speed.Duration()
	}
	if g.Duration != nil {
		opts.Duration = g.Duration.Duration()
	}
	if g.Delay != nil {
		opts.Delay = g.Delay.Duration()
	}
	if g.CloseOnClick != nil {
		opts.CloseOnClick = *g.CloseOnClick
	}
	return opts
}

// Regions returns the display options of every configured group.
func (c *Config) Regions() []display.Options {
	out := make([]display.Options, 0, len(c.Groups))
	for _, g := range c.Groups {
		out = append(out, g.Options())
	}
	return out
}

// SoundFor returns the sound file for a notification type, falling back
// to the "default" entry. Expands ~ to home directory.
func (c *Config) SoundFor(typ string) string {
	path, ok := c.Audio.Sounds[typ]
	if !ok {
		path = c.Audio.Sounds["default"]
	}
	return ExpandPath(path)
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetDuration is a helper for building group configs in code.
func (g *GroupConfig) SetDuration(d time.Duration) {
	g.Duration = durationPtr(d)
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
