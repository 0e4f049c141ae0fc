package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// checkStep compares a step's outcome with its expectations and returns
// one message per mismatch.
func checkStep(exp *Expect, sr StepResult) []string {
	if exp == nil {
		return nil
	}
	var out []string
	rep := sr.Report
	counts := []struct {
		name string
		want *int
		got  int
	}{
		{"patched", exp.Patched, rep.Patched},
		{"rendered", exp.Rendered, rep.Rendered},
		{"built", exp.Built, rep.Built},
		{"razed", exp.Razed, rep.Razed},
		{"spawned", exp.Spawned, rep.Host.Spawned},
		{"despawned", exp.Despawned, rep.Host.Despawned},
		{"inserted", exp.Inserted, rep.Host.Inserted},
	}
	for _, c := range counts {
		if c.want != nil && *c.want != c.got {
			out = append(out, fmt.Sprintf("%s: expected %d, got %d", c.name, *c.want, c.got))
		}
	}

	if exp.Errors != nil {
		got := make([]string, len(rep.Errors))
		for i, e := range rep.Errors {
			got[i] = string(e.Code)
		}
		if !slices.Equal(exp.Errors, got) {
			out = append(out, fmt.Sprintf("errors: expected %v, got %v", exp.Errors, got))
		}
	}

	if exp.Tree != nil {
		want := strings.TrimSpace(*exp.Tree)
		got := strings.TrimSpace(sr.Tree)
		if want != got {
			out = append(out, "tree mismatch (-want +got):\n"+cmp.Diff(lines(want), lines(got)))
		}
	}
	return out
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
