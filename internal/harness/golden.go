package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario, fails t for every unmet expectation
// and compares the result's Snapshot with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario, opts ...Option) *Result {
	t.Helper()

	result, err := Run(context.Background(), sc, opts...)
	if err != nil {
		t.Fatalf("run scenario %s: %v", sc.Name, err)
	}
	for _, f := range result.Failures {
		t.Error(f)
	}
	AssertGolden(t, result)
	return result
}

// AssertGolden compares an existing result's snapshot with its golden file.
func AssertGolden(t *testing.T, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, result.Scenario, []byte(result.Snapshot()))
}
