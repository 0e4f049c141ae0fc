package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weft/internal/testutil"
)

func runWithTokens(t *testing.T, prefix string, args ...string) (string, error) {
	t.Helper()
	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}, Tokens: testutil.NewSeqTokens(prefix)}
	return execute(t, newRunCommand(opts), args...)
}

func TestRun_PrintsPasses(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "greeting.yaml", greetingScenario)

	out, err := runWithTokens(t, "run", path, "--tree")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: greeting")
	assert.Contains(t, out, "[1] initial (pass run-1)")
	assert.Contains(t, out, "[2] rename (pass run-2)")
	assert.Contains(t, out, `  |   "hello there"`)
	assert.Contains(t, out, "✓ All expectations held")
}

func TestRun_FailedExpectation(t *testing.T) {
	doc := strings.Replace(greetingScenario, "patched: 1", "patched: 2", 1)
	path := writeScenario(t, t.TempDir(), "greeting.yaml", doc)

	out, err := runWithTokens(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ step 1 (rename): patched: expected 2, got 1")
}

func TestRun_MissingScenario(t *testing.T) {
	_, err := runWithTokens(t, "run", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_JournalThenTrace(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "greeting.yaml", greetingScenario)
	db := filepath.Join(dir, "weft.db")

	_, err := runWithTokens(t, "first", path, "--journal", db)
	require.NoError(t, err)
	out, err := runWithTokens(t, "second", path, "--journal", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[3] initial (pass second-1)", "seq resumes after the journal's last pass")

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--journal", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] first-1")
	assert.Contains(t, out, "[4] second-2")

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--journal", db, "--pass", "first-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Pass first-2 (seq 2)")
	assert.Contains(t, out, "patch")

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "--journal", db, "--node", "1")
	require.NoError(t, err)
	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Events, 4, "mount and patch from each run")
}

func TestTrace_UnknownPass(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "greeting.yaml", greetingScenario)
	db := filepath.Join(dir, "weft.db")
	_, err := runWithTokens(t, "run", path, "--journal", db)
	require.NoError(t, err)

	_, err = execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--journal", db, "--pass", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTrace_PassAndNodeExclusive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "weft.db")
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--journal", db, "--pass", "a", "--node", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
