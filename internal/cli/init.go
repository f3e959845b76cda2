package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Config   string
	Database string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the receiver from a configuration file",
		Long: `Initialize the receiver database from a YAML configuration file.

The configuration fixes the governance timelock address, the local and
source chain ids, the initial trusted adapter set, and the quorum
threshold. Initialization happens exactly once per database; a second
invocation fails.

Example:
  quorumgate init --config receiver.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML configuration (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVar(&opts.Database, "db", "", "database path (overrides config)")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	initCfg, err := cfg.InitConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	dbPath := cfg.Database
	if opts.Database != "" {
		dbPath = opts.Database
	}

	g, l, err := openGate(ctx, opts.RootOptions, dbPath)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := g.Initialize(ctx, initCfg); err != nil {
		return reportProtocolError(cmd, opts.RootOptions, err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd, map[string]any{
			"database": dbPath,
			"quorum":   initCfg.Quorum,
			"adapters": len(initCfg.Adapters),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s: %d adapters, quorum %d\n",
		dbPath, len(initCfg.Adapters), initCfg.Quorum)
	return nil
}
