package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/message"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
}

// receiverStatus is the JSON payload for the receiver-level view.
type receiverStatus struct {
	Quorum   int             `json:"quorum"`
	Adapters []adapterStatus `json:"adapters"`
}

type adapterStatus struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// messageStatus is the JSON payload for the per-message view.
type messageStatus struct {
	MessageID     string   `json:"message_id"`
	Executed      bool     `json:"executed"`
	DeliveryCount int      `json:"delivery_count"`
	Quorum        int      `json:"quorum"`
	Channels      []string `json:"channels"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status [message-id]",
		Short: "Show receiver or message status",
		Long: `Show the receiver's adapter set and quorum, or — given a message
id — that message's delivery progress.

Examples:
  quorumgate status --db gate.db
  quorumgate status --db gate.db d09d493fc0c6c126462a379ab1a4b6c0...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runMessageStatus(opts, args[0], cmd)
			}
			return runReceiverStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReceiverStatus(opts *StatusOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	g, l, err := openGate(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer l.Close()

	adapters := g.Adapters()
	status := receiverStatus{
		Quorum:   g.Quorum(),
		Adapters: make([]adapterStatus, len(adapters)),
	}
	for i, a := range adapters {
		status.Adapters[i] = adapterStatus{Identity: string(a.Identity), Name: a.Name}
	}

	if opts.Format == "json" {
		return outputJSON(cmd, status)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Quorum: %d of %d adapters\n", status.Quorum, len(status.Adapters))
	for _, a := range status.Adapters {
		fmt.Fprintf(w, "  %s  %s\n", a.Identity, a.Name)
	}
	return nil
}

func runMessageStatus(opts *StatusOptions, rawID string, cmd *cobra.Command) error {
	ctx := context.Background()

	id, err := message.ParseMessageID(rawID)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid message id", err)
	}

	g, l, err := openGate(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer l.Close()

	info, err := g.MessageInfo(ctx, id)
	if err != nil {
		return reportProtocolError(cmd, opts.RootOptions, err)
	}

	status := messageStatus{
		MessageID:     string(id),
		Executed:      info.Executed,
		DeliveryCount: info.DeliveryCount,
		Quorum:        g.Quorum(),
		Channels:      info.Channels,
	}
	if opts.Format == "json" {
		return outputJSON(cmd, status)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Message: %s\n", status.MessageID)
	fmt.Fprintf(w, "Executed: %v\n", status.Executed)
	fmt.Fprintf(w, "Deliveries: %d of %d required\n", status.DeliveryCount, status.Quorum)
	if len(status.Channels) > 0 {
		fmt.Fprintf(w, "Channels: %s\n", strings.Join(status.Channels, ", "))
	}
	return nil
}
