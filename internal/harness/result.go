package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/weft/internal/engine"
)

// StepResult is what one step's pass did.
type StepResult struct {
	Name   string
	Report engine.PassReport
	// Tree is the host.Dump of the root entity's children after the pass.
	Tree string
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string

	// Pass is true when every expectation held.
	Pass bool

	Steps []StepResult

	// Failures holds one message per failed expectation.
	Failures []string
}

// NewResult creates a passing result.
func NewResult(scenario string) *Result {
	return &Result{Scenario: scenario, Pass: true}
}

// AddFailure records a failed expectation and marks the result as failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}

// Snapshot renders the result as the text stored in golden files: per
// step, the pass counters, the error codes and the display tree. Pass
// tokens are left out so snapshots do not depend on the token generator.
func (r *Result) Snapshot() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.Scenario)
	for i, s := range r.Steps {
		rep := s.Report
		fmt.Fprintf(&b, "\n== %d %s\n", i, s.Name)
		fmt.Fprintf(&b, "dirty=%d patched=%d skipped=%d rendered=%d built=%d razed=%d\n",
			rep.Dirty, rep.Patched, rep.Skipped, rep.Rendered, rep.Built, rep.Razed)
		fmt.Fprintf(&b, "host: spawned=%d despawned=%d inserted=%d removed=%d reparented=%d\n",
			rep.Host.Spawned, rep.Host.Despawned, rep.Host.Inserted, rep.Host.Removed, rep.Host.Reparented)
		for _, e := range rep.Errors {
			fmt.Fprintf(&b, "error: %s %s %s\n", e.Code, e.Node, e.NodeKind)
		}
		b.WriteString(s.Tree)
	}
	return b.String()
}
