package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/dbus"
)

const requestTimeout = 5 * time.Second

var sendOpts struct {
	group     string
	typ       string
	urgency   string
	duration  string
	sticky    bool
	replaceID uint32
	appName   string
}

var sendCmd = &cobra.Command{
	Use:   "send <title> [text]",
	Short: "Send a notification to the running daemon",
	Long: `Send a notification over org.freedesktop.Notifications and print its id.

Any compliant daemon accepts the message. toasty additionally honours the
group and type, which pick the region and the styling.

Examples:
  # Plain notification in the default region
  toasty send "Build finished"

  # Error in the ops region that stays until dismissed
  toasty send --group ops --type error --sticky "Deploy failed" "exit status 1"

  # Update a previous notification in place
  toasty send --replace-id 42 --duration 10s "Uploading" "80%"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.group, "group", "g", "",
		"Region to show the notification in")
	sendCmd.Flags().StringVarP(&sendOpts.typ, "type", "t", "",
		"Notification type, e.g. info, warn, error, success")
	sendCmd.Flags().StringVarP(&sendOpts.urgency, "urgency", "u", "normal",
		"Urgency: low, normal, critical")
	sendCmd.Flags().StringVarP(&sendOpts.duration, "duration", "d", "",
		"Display time such as 300ms, 5s or plain milliseconds (default: region setting)")
	sendCmd.Flags().BoolVar(&sendOpts.sticky, "sticky", false,
		"Keep the notification until it is closed")
	sendCmd.Flags().Uint32Var(&sendOpts.replaceID, "replace-id", 0,
		"Replace the notification with this id")
	sendCmd.Flags().StringVar(&sendOpts.appName, "app-name", "toasty",
		"Application name reported to the daemon")
}

func runSend(cmd *cobra.Command, args []string) error {
	msg, err := buildMessage(args)
	if err != nil {
		return err
	}

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Shutdown() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	id, err := client.Notify(ctx, msg)
	if err != nil {
		return err
	}
	logger.Debug("notification sent", "id", id, "group", msg.Group)
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// buildMessage turns the send flags and arguments into a Message.
func buildMessage(args []string) (dbus.Message, error) {
	urgency, err := parseUrgency(sendOpts.urgency)
	if err != nil {
		return dbus.Message{}, err
	}

	msg := dbus.Message{
		AppName:    sendOpts.appName,
		ReplacesID: sendOpts.replaceID,
		Summary:    args[0],
		Group:      sendOpts.group,
		Type:       sendOpts.typ,
		Urgency:    urgency,
		Sticky:     sendOpts.sticky,
	}
	if len(args) > 1 {
		msg.Body = args[1]
	}

	if sendOpts.duration != "" {
		var d config.Duration
		if err := d.UnmarshalText([]byte(sendOpts.duration)); err != nil {
			return dbus.Message{}, err
		}
		if d.Duration() < 0 {
			msg.Sticky = true
		} else {
			msg.Timeout = d.Duration()
		}
	}
	return msg, nil
}

func parseUrgency(s string) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "0":
		return dbus.UrgencyLow, nil
	case "", "normal", "1":
		return dbus.UrgencyNormal, nil
	case "critical", "2":
		return dbus.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("invalid urgency %q: must be low, normal or critical", s)
	}
}
