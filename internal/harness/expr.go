package harness

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/weft/internal/engine"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/reactive"
)

var placeholder = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

var errorCodes = []string{
	string(engine.ErrCodeStaleHandle),
	string(engine.ErrCodeTypeMismatch),
	string(engine.ErrCodeMissingSource),
	string(engine.ErrCodeReconciliation),
	string(engine.ErrCodeTemplate),
}

type exprKind uint8

const (
	exprResource exprKind = iota + 1
	exprCell
	exprInherit
	exprItem
	exprIndex
)

type expr struct {
	kind exprKind
	arg  string   // resource key, cell name or component kind
	path []string // item fields
}

func parseExpr(s string) (expr, error) {
	switch {
	case strings.HasPrefix(s, "res:") && len(s) > len("res:"):
		return expr{kind: exprResource, arg: s[len("res:"):]}, nil
	case strings.HasPrefix(s, "cell:") && len(s) > len("cell:"):
		return expr{kind: exprCell, arg: s[len("cell:"):]}, nil
	case strings.HasPrefix(s, "inherit:") && len(s) > len("inherit:"):
		return expr{kind: exprInherit, arg: s[len("inherit:"):]}, nil
	case s == "index":
		return expr{kind: exprIndex}, nil
	case s == "item":
		return expr{kind: exprItem}, nil
	case strings.HasPrefix(s, "item."):
		path := strings.Split(s[len("item."):], ".")
		for _, p := range path {
			if p == "" {
				return expr{}, fmt.Errorf("bad expression %q", s)
			}
		}
		return expr{kind: exprItem, path: path}, nil
	}
	return expr{}, fmt.Errorf("bad expression %q", s)
}

// itemScope is the list item a node is built for. Nested lists shadow the
// outer item.
type itemScope struct {
	item  any
	index int
	ok    bool
}

// eval reads the value an expression names. found is false for absent
// resources, cells and inherited components; templates render those as
// empty rather than failing.
func (r *renderer) eval(e expr, s itemScope) (v any, found bool, err error) {
	switch e.kind {
	case exprResource:
		v, err := r.cx.ReadResource(e.arg)
		if reactive.IsMissing(err) {
			return nil, false, nil
		}
		return v, err == nil, err
	case exprCell:
		h, ok := r.cells[e.arg]
		if !ok {
			return nil, false, nil
		}
		v, err := reactive.ReadMutable(r.cx, h)
		return v, err == nil, err
	case exprInherit:
		c, _, err := r.cx.ReadInheritedComponent(e.arg)
		if reactive.IsMissing(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return componentValue(c), true, nil
	case exprIndex:
		if !s.ok {
			return nil, false, fmt.Errorf("index used outside a list")
		}
		return s.index, true, nil
	case exprItem:
		if !s.ok {
			return nil, false, fmt.Errorf("item used outside a list")
		}
		v := s.item
		for _, f := range e.path {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, false, fmt.Errorf("item.%s: %T has no fields", strings.Join(e.path, "."), v)
			}
			if v, ok = m[f]; !ok {
				return nil, false, nil
			}
		}
		return v, true, nil
	}
	return nil, false, fmt.Errorf("unknown expression kind %d", e.kind)
}

// interpolate replaces each {{expr}} in s with the value it names.
func (r *renderer) interpolate(s string, scope itemScope) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		e, err := parseExpr(placeholder.FindStringSubmatch(m)[1])
		if err == nil {
			var v any
			var found bool
			if v, found, err = r.eval(e, scope); err == nil {
				if !found {
					return ""
				}
				return format(v)
			}
		}
		if firstErr == nil {
			firstErr = err
		}
		return ""
	})
	return out, firstErr
}

func format(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func componentValue(c host.Component) any {
	switch c := c.(type) {
	case host.Name:
		return string(c)
	case host.Text:
		return string(c)
	case host.Attr:
		return c.Value
	default:
		return c
	}
}
