package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/ledger"
	"github.com/roach88/quorumgate/internal/message"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Message  string // optional - filter to one message id
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Events []ledger.Event `json:"events"`
	Stats  TraceStats     `json:"stats"`
}

// TraceStats holds per-kind event counts.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByKind      map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the receiver's event trace",
		Long: `Show the append-only event trace, in commit order.

Every state change the receiver ever made appears here: initialization,
each delivery, each execution, and every administrative update.

Examples:
  quorumgate trace --db gate.db
  quorumgate trace --db gate.db --message d09d493f...
  quorumgate trace --db gate.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Message, "message", "", "filter to one message id")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	l, err := ledger.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer l.Close()

	var events []ledger.Event
	if opts.Message != "" {
		id, err := message.ParseMessageID(opts.Message)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid message id", err)
		}
		events, err = l.MessageEvents(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
	} else {
		events, err = l.Events(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
	}

	result := TraceResult{
		Events: events,
		Stats:  TraceStats{TotalEvents: len(events), ByKind: map[string]int{}},
	}
	for _, ev := range events {
		result.Stats.ByKind[ev.Kind]++
	}

	if opts.Format == "json" {
		return outputJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// outputTraceText renders the trace for humans.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No events recorded")
		return nil
	}

	for _, ev := range result.Events {
		if ev.MessageID != "" {
			fmt.Fprintf(w, "[%d] %s %s\n", ev.Seq, ev.Kind, truncateID(string(ev.MessageID)))
		} else {
			fmt.Fprintf(w, "[%d] %s\n", ev.Seq, ev.Kind)
		}
		if verbose && len(ev.Payload) > 0 {
			fmt.Fprintf(w, "     %s\n", formatPayload(ev.Payload))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d events\n", result.Stats.TotalEvents)
	for _, kind := range sortedKinds(result.Stats.ByKind) {
		fmt.Fprintf(w, "  %s: %d\n", kind, result.Stats.ByKind[kind])
	}
	return nil
}

// formatPayload renders a payload with sorted keys for deterministic
// output.
func formatPayload(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, payload[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKinds(byKind map[string]int) []string {
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// truncateID truncates a long id for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
