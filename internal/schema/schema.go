package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"cuelang.org/go/encoding/yaml"
)

//go:embed scenario.cue
var source string

// Source returns the CUE text of the scenario schema.
func Source() string { return source }

// SchemaError is a single violation of the scenario schema.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	compileOnce sync.Once
	cueCtx      *cue.Context
	scenarioDef cue.Value
	compileErr  error
)

func definition() (*cue.Context, cue.Value, error) {
	compileOnce.Do(func() {
		cueCtx = cuecontext.New()
		v := cueCtx.CompileString(source, cue.Filename("scenario.cue"))
		if err := v.Err(); err != nil {
			compileErr = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		scenarioDef = v.LookupPath(cue.ParsePath("#Scenario"))
		if !scenarioDef.Exists() {
			compileErr = fmt.Errorf("compile scenario schema: #Scenario not defined")
		}
	})
	return cueCtx, scenarioDef, compileErr
}

// Check validates a YAML scenario document and returns every violation
// found, in the order CUE reports them. filename is used in positions.
func Check(filename string, data []byte) []*SchemaError {
	ctx, def, err := definition()
	if err != nil {
		return []*SchemaError{{Field: "schema", Message: err.Error()}}
	}

	f, err := yaml.Extract(filename, data)
	if err != nil {
		return convert(filename, "yaml", err)
	}
	doc := ctx.BuildFile(f)
	if err := doc.Err(); err != nil {
		return convert(filename, "yaml", err)
	}

	v := def.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return convert(filename, "", err)
	}
	return nil
}

// Validate is Check reporting only the first violation.
func Validate(filename string, data []byte) error {
	if errs := Check(filename, data); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// convert splits a CUE error list into SchemaErrors. field names errors
// that carry no path of their own. Positions inside the scenario file are
// preferred over positions in the schema.
func convert(filename, field string, err error) []*SchemaError {
	list := errors.Errors(err)
	if len(list) == 0 {
		return []*SchemaError{{Field: field, Message: err.Error()}}
	}
	out := make([]*SchemaError, 0, len(list))
	for _, e := range list {
		se := &SchemaError{Field: field}
		if path := errors.Path(e); len(path) > 0 {
			se.Field = strings.Join(path, ".")
		}
		if se.Field == "" {
			se.Field = "scenario"
		}
		format, args := e.Msg()
		se.Message = fmt.Sprintf(format, args...)
		for i, pos := range errors.Positions(e) {
			if i == 0 || pos.Filename() == filename {
				se.Pos = pos
			}
			if pos.Filename() == filename {
				break
			}
		}
		out = append(out, se)
	}
	return out
}
