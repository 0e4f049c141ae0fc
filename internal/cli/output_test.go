package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(ValidateResult{Files: []FileValidation{{Path: "a.yaml", Valid: true}}}))

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "a.yaml", resp.Data.Files[0].Path)
	assert.Contains(t, buf.String(), "\n  \"status\"", "JSON output is indented")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := []ValidationIssue{{Field: "root", Message: "incomplete value"}}
	require.NoError(t, formatter.Error(CodeInvalidScenario, "1 file(s) invalid", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCHEMA", resp.Error.Code)
	assert.Equal(t, "1 file(s) invalid", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    []string
		absent  []string
	}{
		{"quiet", false, []string{"Error [E_TEST_FAILED]: 2 scenario(s) failed"}, []string{"Details:"}},
		{"verbose", true, []string{"Error [E_TEST_FAILED]", "Details: [keyed-list counter]"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}
			require.NoError(t, formatter.Error(CodeTestFailed, "2 scenario(s) failed", []string{"keyed-list", "counter"}))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestOutputFormatter_Progress(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.Progress("validating %s", "counter.yaml")
	assert.Equal(t, "validating counter.yaml\n", diag.String())
	assert.Empty(t, out.String(), "progress never mixes with results")

	diag.Reset()
	formatter.Verbose = false
	formatter.Progress("validating %s", "counter.yaml")
	assert.Empty(t, diag.String())
}

func TestExitCodes(t *testing.T) {
	cause := errors.New("disk full")

	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("run: %w", WrapExitError(ExitCommandError, "failed to open journal", cause))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "run: failed to open journal: disk full", wrapped.Error())
}
