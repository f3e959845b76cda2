package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/message"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	*RootOptions
	Database string
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "execute <message-id>",
		Short: "Execute a message that has reached quorum",
		Long: `Execute a message that has reached quorum.

On success the stored payload is appended to the timelock outbox and the
message becomes terminal. Execution is permissionless.

A premature call (before quorum) fails AND permanently forecloses the
message id; the gate refuses nothing up front, so only call execute when
status shows the delivery count at or above quorum.

Example:
  quorumgate execute --db gate.db d09d493fc0c6c126462a379ab1a4b6c0...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExecute(opts *ExecuteOptions, rawID string, cmd *cobra.Command) error {
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

	if err := g.Execute(ctx, id); err != nil {
		return reportProtocolError(cmd, opts.RootOptions, err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd, map[string]any{"message_id": string(id)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Executed %s\n", id)
	return nil
}
