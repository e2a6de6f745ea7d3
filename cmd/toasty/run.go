package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/daemon"
	"github.com/jmylchreest/toasty/internal/tui"
)

var runOpts struct {
	headless bool
	monitor  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the notification daemon",
	Long: `Start the notification daemon.

By default the daemon claims org.freedesktop.Notifications on the session
bus and draws the notification regions in the terminal. With --headless
nothing is drawn and the daemon only serves D-Bus and the HTTP API.

With --monitor toasty does not claim the bus name. It observes the
notifications another daemon receives and mirrors them into its regions.

Config changes are picked up without a restart, except for the listener
addresses and the dbus and http switches.`,
	Annotations: map[string]string{annotationTerminal: "true"},
	RunE:        runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&runOpts.headless, "headless", false,
			"Do not draw in the terminal")
		c.Flags().BoolVar(&runOpts.monitor, "monitor", false,
			"Mirror another daemon's notifications instead of owning the bus name")
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}

	d := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: path,
		Monitor:    runOpts.monitor,
		Logger:     logger,
		Version:    version,
	})
	if err := d.Start(ctx); err != nil {
		d.Stop()
		return err
	}
	defer d.Stop()

	if runOpts.headless {
		logger.Info("running headless", "config", path)
		<-ctx.Done()
		return nil
	}

	err := tui.Run(ctx, tui.RunOptions{
		Options: tui.Options{
			Regions:  d.Regions(),
			ShowHelp: d.Config().TUI.ShowHelp,
			Logger:   logger,
		},
		Bus: d.Bus(),
	})
	if err != nil {
		return fmt.Errorf("terminal renderer: %w", err)
	}
	return nil
}

// commandContext returns a context bounded by the request timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}
