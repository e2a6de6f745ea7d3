// Package main provides the CLI entrypoint for toasty.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		logFile    string
		jsonLogs   bool
	}
	logger  *slog.Logger
	logSink io.Closer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toasty",
	Short: "Grouped toast notifications for the terminal and the desktop bus",
	Long: `toasty queues short-lived notifications into named regions, expires
them on a timer, and renders them in the terminal.

Notifications arrive over org.freedesktop.Notifications, the HTTP API, or
the send subcommand. Running toasty without a subcommand starts the daemon
with the terminal renderer.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return setupLogger(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logSink != nil {
			return logSink.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Annotations = map[string]string{annotationTerminal: "true"}
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/toasty/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logFile, "log-file", "",
		"Write logs to this file instead of stderr (the daemon defaults to ~/.local/state/toasty/toasty.log)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.jsonLogs, "log-json", false,
		"Write logs as JSON")
}

// setupLogger configures the global slog logger on top of charmbracelet/log.
// Commands that own the terminal log to a file so output stays readable.
func setupLogger(cmd *cobra.Command) error {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	path := globalOpts.logFile
	if path == "" && ownsTerminal(cmd) {
		path = config.LogPath()
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		logSink = f
	}

	logger = newLogger(w, level, globalOpts.jsonLogs)
	slog.SetDefault(logger)
	return nil
}

func newLogger(w io.Writer, level slog.Level, json bool) *slog.Logger {
	handler := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           clog.Level(level),
	})
	if json {
		handler.SetFormatter(clog.JSONFormatter)
	}
	return slog.New(handler)
}

// annotationTerminal marks commands that draw a full-screen renderer.
const annotationTerminal = "toasty/terminal"

// ownsTerminal reports whether cmd draws a full-screen renderer.
func ownsTerminal(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationTerminal] != "true" {
		return false
	}
	headless, _ := cmd.Flags().GetBool("headless")
	return !headless
}
