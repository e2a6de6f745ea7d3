package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/config"
)

var configOpts struct {
	format string
	force  bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE:  runConfigPath,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults are applied.

The output can be saved as a starting point:

  toasty config show --format yaml > ~/.config/toasty/config.yaml`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to the config path.

An existing file is left alone unless --force is given. The file format
follows --format, or the extension of --config when it is set.`,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd, configShowCmd, configInitCmd)

	configShowCmd.Flags().StringVarP(&configOpts.format, "format", "f", "toml",
		"Output format: toml, yaml")
	configInitCmd.Flags().StringVarP(&configOpts.format, "format", "f", "",
		"File format: toml, yaml (default: from the path)")
	configInitCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite an existing file")
}

func configFile() string {
	if globalOpts.configPath != "" {
		return config.ExpandPath(globalOpts.configPath)
	}
	return config.ConfigPath()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := configFile()
	out := cmd.OutOrStdout()

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(out, "%s (not created, defaults in use)\n", path)
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "%s (%s, modified %s)\n",
			path, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	asYAML, err := parseFormat(configOpts.format)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal(asYAML)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile()
	if configOpts.format != "" {
		asYAML, err := parseFormat(configOpts.format)
		if err != nil {
			return err
		}
		path = withFormat(path, asYAML)
	}

	if _, err := os.Stat(path); err == nil && !configOpts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func parseFormat(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "toml":
		return false, nil
	case "yaml", "yml":
		return true, nil
	default:
		return false, fmt.Errorf("invalid format %q: must be toml or yaml", s)
	}
}

// withFormat swaps the extension of path to match the requested format.
func withFormat(path string, asYAML bool) string {
	ext := ".toml"
	if asYAML {
		ext = ".yaml"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
