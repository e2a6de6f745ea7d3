package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/adapter/output"
	"github.com/jmylchreest/toasty/internal/core"
	"github.com/jmylchreest/toasty/internal/httpapi"
)

var listOpts struct {
	addr     string
	format   string
	template string
	group    string
	typ      string
	search   string
	since    time.Duration
	sort     string
	order    string
	limit    int
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active notifications of a running daemon",
	Long: `List the active notifications of a running daemon.

The daemon must have the HTTP API enabled ([http] enabled = true).

Examples:
  # Everything, newest first
  toasty list

  # Pick one with a launcher and close it
  toasty list --format dmenu | fuzzel -d | cut -d' ' -f1

  # Close every error in the ops region
  toasty list --group ops --type error --format ids | xargs -rn1 toasty close

  # Custom line format
  toasty list --template '{{.Entry.ID}} {{.Entry.Title}} ({{.Remaining}}){{"\n"}}'`,
	RunE: runList,
}

var clearCmd = &cobra.Command{
	Use:   "clear [group]",
	Short: "Destroy every active notification in a region",
	Long: `Destroy every active notification in a region over the HTTP API.

Without an argument the default region is cleared.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(listCmd, clearCmd)

	for _, c := range []*cobra.Command{listCmd, clearCmd} {
		c.Flags().StringVar(&listOpts.addr, "addr", "",
			"HTTP API address (default: [http] addr from the config)")
	}

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "plain",
		"Output format: plain, dmenu, json, ids")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Go template for plain or dmenu output")
	listCmd.Flags().StringVarP(&listOpts.group, "group", "g", "",
		"Only this region (use --group='' for the default region)")
	listCmd.Flags().StringVarP(&listOpts.typ, "type", "t", "",
		"Only this notification type")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "",
		"Only entries whose title or text contains this")
	listCmd.Flags().DurationVar(&listOpts.since, "since", 0,
		"Only entries created within this duration")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", "created",
		"Sort by: created, group, type, remaining")
	listCmd.Flags().StringVar(&listOpts.order, "order", "desc",
		"Sort order: asc, desc")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", 0,
		"Maximum entries (0 = unlimited)")
}

func apiClient() *httpapi.Client {
	addr := listOpts.addr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	return httpapi.NewClient(addr)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	regions, err := apiClient().Regions(ctx)
	if err != nil {
		return fmt.Errorf("failed to query daemon: %w", err)
	}

	filter := core.FilterOptions{
		Type:   listOpts.typ,
		Search: listOpts.search,
		Since:  listOpts.since,
		Limit:  listOpts.limit,
	}
	if cmd.Flags().Changed("group") {
		filter.Group = &listOpts.group
	}

	entries := toEntries(regions)
	core.Sort(entries, core.SortOptions{
		Field: core.ParseSortField(listOpts.sort),
		Order: core.ParseSortOrder(listOpts.order),
	})
	entries = core.Filter(entries, filter)

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	return output.NewFormatter(output.FormatType(listOpts.format), opts).
		Format(cmd.OutOrStdout(), entries)
}

func runClear(cmd *cobra.Command, args []string) error {
	group := ""
	if len(args) == 1 {
		group = args[0]
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	return apiClient().Clear(ctx, group)
}

// toEntries flattens a region snapshot into list entries. Remaining
// times are converted from the snapshot's milliseconds.
func toEntries(regions []httpapi.RegionView) []output.Entry {
	var entries []output.Entry
	for _, r := range regions {
		for _, item := range r.Items {
			e := output.Entry{
				ID:        item.ID,
				Group:     r.Group,
				Title:     item.Title,
				Text:      item.Text,
				Type:      item.Type,
				CreatedAt: item.CreatedAt,
				Paused:    item.Paused,
			}
			if item.RemainingMS != nil {
				d := time.Duration(*item.RemainingMS) * time.Millisecond
				e.Remaining = &d
			}
			entries = append(entries, e)
		}
	}
	return entries
}
