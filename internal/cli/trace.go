package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/weft/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	Pass    string // optional - show one pass in detail
	Node    uint64 // optional - show the history of one node
}

// TraceResult holds the trace output. Exactly one of its sections is
// filled, depending on the flags.
type TraceResult struct {
	Passes []journal.Pass      `json:"passes,omitempty"`
	Pass   *journal.Pass       `json:"pass,omitempty"`
	Events []journal.Event     `json:"events,omitempty"`
	Errors []journal.NodeError `json:"errors,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the pass journal",
		Long: `Query a pass journal written by "weft run --journal".

Without filters, lists every journaled pass in seq order. With --pass,
shows that pass's counters, node events and node failures. With --node,
shows every event recorded for one view node across passes.

Examples:
  weft trace --journal ./weft.db
  weft trace --journal ./weft.db --pass 0192f0c4-...
  weft trace --journal ./weft.db --node 3 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite pass journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Pass, "pass", "", "pass token to show")
	cmd.Flags().Uint64Var(&opts.Node, "node", 0, "node id to show history for")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Pass != "" && opts.Node != 0 {
		return NewExitError(ExitCommandError, "--pass and --node are mutually exclusive")
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var result TraceResult
	switch {
	case opts.Pass != "":
		p, err := j.Pass(ctx, opts.Pass)
		if errors.Is(err, journal.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("pass not found: %s", opts.Pass))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read pass", err)
		}
		result.Pass = &p
		if result.Events, err = j.Events(ctx, opts.Pass); err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
		if result.Errors, err = j.Errors(ctx, opts.Pass); err != nil {
			return WrapExitError(ExitCommandError, "failed to read errors", err)
		}
	case opts.Node != 0:
		if result.Events, err = j.NodeHistory(ctx, opts.Node); err != nil {
			return WrapExitError(ExitCommandError, "failed to read node history", err)
		}
	default:
		if result.Passes, err = j.Passes(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to read passes", err)
		}
	}

	if opts.Format == "json" {
		return newFormatter(opts.RootOptions, cmd).Success(result)
	}
	printTrace(cmd.OutOrStdout(), opts, result)
	return nil
}

func printTrace(w io.Writer, opts *TraceOptions, r TraceResult) {
	switch {
	case r.Pass != nil:
		p := r.Pass
		fmt.Fprintf(w, "Pass %s (seq %d)\n", p.Token, p.Seq)
		fmt.Fprintf(w, "  mounted=%d dirty=%d patched=%d skipped=%d rendered=%d built=%d razed=%d\n",
			p.Mounted, p.Dirty, p.Patched, p.Skipped, p.Rendered, p.Built, p.Razed)
		fmt.Fprintf(w, "  host: spawned=%d despawned=%d inserted=%d removed=%d reparented=%d\n",
			p.Host.Spawned, p.Host.Despawned, p.Host.Inserted, p.Host.Removed, p.Host.Reparented)
		printEvents(w, r.Events)
		if len(r.Errors) > 0 {
			fmt.Fprintln(w, "\nErrors:")
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  n%d %s %s: %s\n", e.Node, e.NodeKind, e.Code, e.Message)
			}
		}
	case opts.Node != 0:
		if len(r.Events) == 0 {
			fmt.Fprintf(w, "No events found for node n%d\n", opts.Node)
			return
		}
		fmt.Fprintf(w, "History of n%d\n", opts.Node)
		printEvents(w, r.Events)
	default:
		if len(r.Passes) == 0 {
			fmt.Fprintln(w, "No passes journaled.")
			return
		}
		for _, p := range r.Passes {
			fmt.Fprintf(w, "[%d] %s patched=%d built=%d razed=%d errors=%d\n",
				p.Seq, p.Token, p.Patched, p.Built, p.Razed, p.Errors)
		}
	}
}

func printEvents(w io.Writer, events []journal.Event) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintln(w, "\nEvents:")
	for _, e := range events {
		line := fmt.Sprintf("  [%d] %-7s n%d %s", e.Seq, e.Kind, e.Node, e.NodeKind)
		if e.Changed {
			line += " changed"
		}
		if e.Detail != "" {
			line += " " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
}
