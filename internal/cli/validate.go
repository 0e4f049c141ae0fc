package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/weft/internal/harness"
	"github.com/roach88/weft/internal/schema"
)

// ValidationIssue is one problem found in a scenario file.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// FileValidation is the outcome for one file.
type FileValidation struct {
	Path   string            `json:"path"`
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// ValidateResult is the outcome of a validate run.
type ValidateResult struct {
	Files   []FileValidation `json:"files"`
	Invalid int              `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-file-or-dir>...",
		Short: "Check scenario files against the scenario schema",
		Long: `Check scenario files without running them.

Each file is validated against the embedded CUE scenario schema, then its
template references and expressions are resolved. Directories are searched
for .yaml and .yml files.

Exit codes:
  0 - All files are valid
  1 - One or more files are invalid
  2 - Command error (missing paths, etc.)

Examples:
  weft validate ./scenarios
  weft validate list.yaml counter.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, "")
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read %s", p), err)
		}
		files = append(files, found...)
	}

	out := newFormatter(opts, cmd)
	result := ValidateResult{Files: make([]FileValidation, 0, len(files))}
	for _, f := range files {
		out.Progress("validating %s", f)
		fv := validateFile(f)
		if !fv.Valid {
			result.Invalid++
		}
		result.Files = append(result.Files, fv)
	}

	if out.JSON() {
		if result.Invalid > 0 {
			if err := out.Error(CodeInvalidScenario, fmt.Sprintf("%d file(s) invalid", result.Invalid), result); err != nil {
				return err
			}
		} else if err := out.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(w, "✓ %s\n", fv.Path)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", fv.Path)
			for _, is := range fv.Issues {
				fmt.Fprintf(w, "  %s\n", is)
			}
		}
	}

	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) invalid", result.Invalid, len(result.Files)))
	}
	return nil
}

func (is ValidationIssue) String() string {
	var b strings.Builder
	if is.Line > 0 {
		fmt.Fprintf(&b, "%d:%d: ", is.Line, is.Column)
	}
	if is.Field != "" {
		b.WriteString(is.Field + ": ")
	}
	b.WriteString(is.Message)
	return b.String()
}

// validateFile reports every schema violation, or, for a schema-valid
// file, the first reference error found while parsing.
func validateFile(path string) FileValidation {
	fv := FileValidation{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		fv.Issues = []ValidationIssue{{Message: err.Error()}}
		return fv
	}

	for _, se := range schema.Check(filepath.Base(path), data) {
		is := ValidationIssue{Field: se.Field, Message: se.Message}
		if se.Pos.IsValid() {
			is.Line, is.Column = se.Pos.Line(), se.Pos.Column()
		}
		fv.Issues = append(fv.Issues, is)
	}
	if len(fv.Issues) > 0 {
		return fv
	}

	if _, err := harness.ParseScenario(filepath.Base(path), data); err != nil {
		var se *schema.SchemaError
		if errors.As(err, &se) {
			fv.Issues = []ValidationIssue{{Field: se.Field, Message: se.Message}}
		} else {
			fv.Issues = []ValidationIssue{{Message: err.Error()}}
		}
		return fv
	}
	fv.Valid = true
	return fv
}
