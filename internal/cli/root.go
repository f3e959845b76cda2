// Package cli implements the quorumgate command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/gate"
	"github.com/roach88/quorumgate/internal/ledger"
	"github.com/roach88/quorumgate/internal/timelock"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quorumgate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quorumgate",
		Short: "Cross-chain message quorum gate",
		Long: `A quorum gate for cross-chain governance messages.

Bridge adapters deliver messages into a durable ledger; once enough
independent adapters have delivered the same message, anyone may execute
it, forwarding the payload to the governance timelock outbox.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewReceiveCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openGate opens the ledger and restores the gate over it, using the
// durable outbox as the timelock scheduler. The caller must Close the
// returned ledger.
func openGate(ctx context.Context, opts *RootOptions, dbPath string) (*gate.Gate, *ledger.Ledger, error) {
	l, err := ledger.Open(dbPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(opts),
	}))
	g, err := gate.Open(ctx, l, timelock.NewOutbox(l), gate.Options{Logger: logger})
	if err != nil {
		l.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to open gate", err)
	}
	return g, l, nil
}

func logLevel(opts *RootOptions) slog.Level {
	if opts.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// reportProtocolError renders a protocol rejection in the configured
// format and returns an ExitError carrying exit code 1. Non-protocol
// errors map to exit code 2.
func reportProtocolError(cmd *cobra.Command, opts *RootOptions, err error) error {
	var pe *gate.ProtocolError
	if !errors.As(err, &pe) {
		return WrapExitError(ExitCommandError, "command failed", err)
	}

	if opts.Format == "json" {
		if jsonErr := outputJSONError(cmd, string(pe.Code), pe.Message, protocolDetails(pe)); jsonErr != nil {
			return WrapExitError(ExitCommandError, "failed to encode output", jsonErr)
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Rejected [%s]: %s\n", pe.Code, pe.Message)
	}
	return &ExitError{Code: ExitRejected, Message: err.Error(), Err: err}
}

func protocolDetails(pe *gate.ProtocolError) map[string]string {
	details := make(map[string]string, len(pe.Details)+2)
	for k, v := range pe.Details {
		details[k] = v
	}
	if pe.MessageID != "" {
		details["message_id"] = string(pe.MessageID)
	}
	if pe.Adapter != "" {
		details["adapter"] = string(pe.Adapter)
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
