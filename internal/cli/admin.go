package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/gate"
	"github.com/roach88/quorumgate/internal/message"
)

// AdminOptions holds flags shared by the admin subcommands.
type AdminOptions struct {
	*RootOptions
	Database string
	Caller   string
}

// NewAdminCommand creates the admin command group.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations (governance only)",
		Long: `Administrative operations on the adapter set and quorum.

All admin commands require --caller to be the governance timelock
address fixed at initialization; any other caller is rejected.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	cmd.PersistentFlags().StringVar(&opts.Caller, "caller", "", "caller address (required)")
	_ = cmd.MarkPersistentFlagRequired("caller")

	cmd.AddCommand(newSetQuorumCommand(opts))
	cmd.AddCommand(newUpdateAdaptersCommand(opts))

	return cmd
}

func newSetQuorumCommand(opts *AdminOptions) *cobra.Command {
	var quorum int

	cmd := &cobra.Command{
		Use:   "set-quorum",
		Short: "Replace the quorum threshold",
		Long: `Replace the quorum threshold.

The new value must be at least 1 and at most the current adapter count.

Example:
  quorumgate admin set-quorum --db gate.db --caller 0xda... --quorum 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetQuorum(opts, quorum, cmd)
		},
	}

	cmd.Flags().IntVar(&quorum, "quorum", 0, "new quorum threshold (required)")
	_ = cmd.MarkFlagRequired("quorum")

	return cmd
}

func runSetQuorum(opts *AdminOptions, quorum int, cmd *cobra.Command) error {
	ctx := context.Background()

	caller, err := message.ParseAddress(opts.Caller)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --caller", err)
	}

	g, l, err := openGate(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := g.SetQuorum(ctx, caller, quorum); err != nil {
		return reportProtocolError(cmd, opts.RootOptions, err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd, map[string]any{"quorum": quorum})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Quorum set to %d\n", quorum)
	return nil
}

func newUpdateAdaptersCommand(opts *AdminOptions) *cobra.Command {
	var (
		adds    []string
		removes []string
		quorum  int
	)

	cmd := &cobra.Command{
		Use:   "update-adapters",
		Short: "Add and remove trusted adapters",
		Long: `Add and remove trusted adapters as one atomic batch.

Each --add takes identity=name (name optional); each --remove takes an
identity. With --quorum, the threshold changes in the same atomic batch,
which permits shrinking the adapter set below the old quorum.

A batch that would leave the quorum unattainable is rejected whole.

Examples:
  quorumgate admin update-adapters --db gate.db --caller 0xda... \
    --add 0xdd...=hyperlane --remove 0xcc...
  quorumgate admin update-adapters --db gate.db --caller 0xda... \
    --remove 0xbb... --remove 0xcc... --quorum 1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateAdapters(opts, adds, removes, quorum, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&adds, "add", nil, "adapter to add, as identity=name (repeatable)")
	cmd.Flags().StringArrayVar(&removes, "remove", nil, "adapter identity to remove (repeatable)")
	cmd.Flags().IntVar(&quorum, "quorum", 0, "also set a new quorum in the same batch")

	return cmd
}

func runUpdateAdapters(opts *AdminOptions, adds, removes []string, quorum int, cmd *cobra.Command) error {
	ctx := context.Background()

	caller, err := message.ParseAddress(opts.Caller)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --caller", err)
	}
	updates, err := parseAdapterUpdates(adds, removes)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid adapter update", err)
	}

	g, l, err := openGate(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer l.Close()

	if quorum > 0 {
		err = g.UpdateQuorumAndAdapters(ctx, caller, quorum, updates)
	} else {
		err = g.UpdateAdapters(ctx, caller, updates)
	}
	if err != nil {
		return reportProtocolError(cmd, opts.RootOptions, err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd, map[string]any{
			"adapters": len(g.Adapters()),
			"quorum":   g.Quorum(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Adapter set updated: %d adapters, quorum %d\n",
		len(g.Adapters()), g.Quorum())
	return nil
}

// parseAdapterUpdates converts --add identity=name and --remove identity
// flags into an update batch, adds first.
func parseAdapterUpdates(adds, removes []string) ([]gate.AdapterUpdate, error) {
	updates := make([]gate.AdapterUpdate, 0, len(adds)+len(removes))
	for _, spec := range adds {
		identityPart, name, _ := strings.Cut(spec, "=")
		identity, err := message.ParseAddress(identityPart)
		if err != nil {
			return nil, fmt.Errorf("--add %q: %w", spec, err)
		}
		updates = append(updates, gate.AdapterUpdate{Identity: identity, Add: true, Name: name})
	}
	for _, spec := range removes {
		identity, err := message.ParseAddress(spec)
		if err != nil {
			return nil, fmt.Errorf("--remove %q: %w", spec, err)
		}
		updates = append(updates, gate.AdapterUpdate{Identity: identity})
	}
	return updates, nil
}
