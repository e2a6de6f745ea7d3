package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/dbus"
)

var statusOpts struct {
	json bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which notification daemon is running",
	Long: `Query org.freedesktop.Notifications and print the server information.

The command fails when no daemon owns the bus name, so it doubles as a
health check:

  toasty status >/dev/null || toasty run --headless &`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false,
		"Output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Shutdown() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	info, err := client.ServerInformation(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"name":         info.Name,
			"vendor":       info.Vendor,
			"version":      info.Version,
			"spec_version": info.SpecVersion,
		})
	}

	fmt.Fprintf(out, "%s %s (%s), notification spec %s\n",
		info.Name, info.Version, info.Vendor, info.SpecVersion)
	return nil
}
