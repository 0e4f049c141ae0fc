package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/weft/internal/engine"
	"github.com/roach88/weft/internal/harness"
	"github.com/roach88/weft/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string
	Tree    bool

	// Tokens overrides the pass token generator (for testing). If nil,
	// defaults to UUIDv7Generator.
	Tokens engine.PassTokenGenerator
}

// StepSummary is one step of a run as printed by the run command.
type StepSummary struct {
	Name     string   `json:"name"`
	Pass     string   `json:"pass"`
	Seq      int64    `json:"seq"`
	Patched  int      `json:"patched"`
	Rendered int      `json:"rendered"`
	Built    int      `json:"built"`
	Razed    int      `json:"razed"`
	Host     int      `json:"host_mutations"`
	Errors   []string `json:"errors,omitempty"`
	Tree     string   `json:"tree,omitempty"`
}

// RunResult is the output of the run command.
type RunResult struct {
	Scenario string        `json:"scenario"`
	Pass     bool          `json:"pass"`
	Steps    []StepSummary `json:"steps"`
	Failures []string      `json:"failures,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run one scenario and print each pass",
		Long: `Run a scenario against an in-memory host and print what every pass did.

With --journal, each non-idle pass is recorded in a SQLite journal that
"weft trace" can query later. Sequence numbers continue from the last pass
already in the journal.

Example:
  weft run ./scenarios/keyed-list.yaml --tree
  weft run ./scenarios/keyed-list.yaml --journal ./weft.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite pass journal")
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "print the display tree after each step")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	sc, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = engine.UUIDv7Generator{}
	}
	runOpts := []harness.Option{harness.WithLogger(log), harness.WithPassTokens(tokens)}

	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		last, err := j.LastSeq(context.Background())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		runOpts = append(runOpts, harness.WithRecorder(j), harness.WithClock(engine.NewClockAt(last)))
		log.Debug("journal ready", "path", opts.Journal, "resume_after", last)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := harness.Run(ctx, sc, runOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario error", err)
	}
	log.Debug("scenario finished", slog.String("scenario", sc.Name), slog.Bool("pass", result.Pass))

	out := summarize(result, opts.Tree)
	if opts.Format == "json" {
		if err := newFormatter(opts.RootOptions, cmd).Success(out); err != nil {
			return err
		}
	} else {
		printRun(cmd, out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(result.Failures)))
	}
	return nil
}

func summarize(r *harness.Result, tree bool) RunResult {
	out := RunResult{Scenario: r.Scenario, Pass: r.Pass, Failures: r.Failures}
	for _, s := range r.Steps {
		rep := s.Report
		ss := StepSummary{
			Name:     s.Name,
			Pass:     rep.Token,
			Seq:      rep.Seq,
			Patched:  rep.Patched,
			Rendered: rep.Rendered,
			Built:    rep.Built,
			Razed:    rep.Razed,
			Host:     rep.Host.Structural(),
		}
		for _, e := range rep.Errors {
			ss.Errors = append(ss.Errors, e.Error())
		}
		if tree {
			ss.Tree = s.Tree
		}
		out.Steps = append(out.Steps, ss)
	}
	return out
}

func printRun(cmd *cobra.Command, r RunResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Scenario: %s\n", r.Scenario)
	for _, s := range r.Steps {
		fmt.Fprintf(w, "\n[%d] %s (pass %s)\n", s.Seq, s.Name, s.Pass)
		fmt.Fprintf(w, "  patched=%d rendered=%d built=%d razed=%d host=%d\n",
			s.Patched, s.Rendered, s.Built, s.Razed, s.Host)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
		if s.Tree != "" {
			for _, line := range strings.Split(strings.TrimRight(s.Tree, "\n"), "\n") {
				fmt.Fprintf(w, "  | %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
	if r.Pass {
		fmt.Fprintln(w, "✓ All expectations held")
		return
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "✗ %s\n", f)
	}
}
