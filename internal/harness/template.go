package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/reactive"
	"github.com/roach88/weft/internal/view"
)

// cellRegistry remembers the state cells of every template instance by
// name so steps can write them.
type cellRegistry struct {
	byName map[string][]cells.Handle[any]
}

func newCellRegistry() *cellRegistry {
	return &cellRegistry{byName: make(map[string][]cells.Handle[any])}
}

func (r *cellRegistry) track(name string, h cells.Handle[any]) {
	if !slices.Contains(r.byName[name], h) {
		r.byName[name] = append(r.byName[name], h)
	}
}

// write sets every live cell called name and reports how many it wrote.
// Handles of razed instances are dropped.
func (r *cellRegistry) write(cs *cells.Store, name string, v any) (int, error) {
	live := r.byName[name][:0]
	for _, h := range r.byName[name] {
		if cs.Alive(h.ID()) {
			live = append(live, h)
		}
	}
	r.byName[name] = live
	for _, h := range live {
		if err := cells.Set(cs, h, v); err != nil {
			return 0, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return len(live), nil
}

// sceneTemplate renders a scenario template. Instances inside a list carry
// their item, so a changed item re-renders the instance.
type sceneTemplate struct {
	sc    *Scenario
	name  string
	scope itemScope
	reg   *cellRegistry
}

// Identity keeps instances of different templates from sharing state.
func (t sceneTemplate) Identity() any { return t.name }

func (t sceneTemplate) Equal(other view.Template) bool {
	o, ok := other.(sceneTemplate)
	return ok && o.sc == t.sc && o.name == t.name && o.reg == t.reg &&
		o.scope.ok == t.scope.ok && o.scope.index == t.scope.index &&
		reflect.DeepEqual(o.scope.item, t.scope.item)
}

func (t sceneTemplate) Render(cx *reactive.Cx) (view.View, error) {
	def, ok := t.sc.Templates[t.name]
	if !ok {
		return nil, fmt.Errorf("template %q is not defined", t.name)
	}
	r := &renderer{cx: cx, t: t, cells: make(map[string]cells.Handle[any], len(def.State))}

	names := make([]string, 0, len(def.State))
	for name := range def.State {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		h := reactive.CreateMutable[any](cx, def.State[name])
		r.cells[name] = h
		t.reg.track(name, h)
	}

	return r.node(def.View, t.scope)
}

// renderer turns Nodes into views during one render. Everything it reads
// goes through cx, so item views of lists are built here eagerly rather
// than lazily by the tree.
type renderer struct {
	cx    *reactive.Cx
	t     sceneTemplate
	cells map[string]cells.Handle[any]
}

func (r *renderer) node(n Node, s itemScope) (view.View, error) {
	switch n.variant() {
	case "text":
		text, err := r.interpolate(n.Text, s)
		if err != nil {
			return nil, err
		}
		return view.Text(text), nil
	case "element":
		return r.element(n, s)
	case "fragment":
		kids, err := r.nodes(n.Fragment, s)
		if err != nil {
			return nil, err
		}
		return view.Fragment(kids...), nil
	case "if":
		return r.cond(n, s)
	case "for":
		return r.list(n, s)
	case "use":
		return view.Use(sceneTemplate{sc: r.t.sc, name: n.Use, scope: s, reg: r.t.reg}), nil
	case "empty":
		return view.Empty(), nil
	}
	return nil, fmt.Errorf("node has no variant")
}

func (r *renderer) nodes(ns []Node, s itemScope) ([]view.View, error) {
	out := make([]view.View, 0, len(ns))
	for _, n := range ns {
		v, err := r.node(n, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *renderer) element(n Node, s itemScope) (view.View, error) {
	comps := []host.Component{host.Name(n.Element)}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v, err := r.interpolate(n.Attrs[k], s)
		if err != nil {
			return nil, fmt.Errorf("attr %s: %w", k, err)
		}
		comps = append(comps, host.Attr{Key: k, Value: v})
	}
	kids, err := r.nodes(n.Children, s)
	if err != nil {
		return nil, err
	}
	return view.Element(comps...).Children(kids...), nil
}

func (r *renderer) cond(n Node, s itemScope) (view.View, error) {
	e, err := parseExpr(n.If)
	if err != nil {
		return nil, err
	}
	v, _, err := r.eval(e, s)
	if err != nil {
		return nil, err
	}
	test := truthy(v)
	// Only the taken branch is built; the other one is never read.
	var then, els view.View = view.Empty(), view.Empty()
	branch, target := n.Else, &els
	if test {
		branch, target = n.Then, &then
	}
	if branch != nil {
		if *target, err = r.node(*branch, s); err != nil {
			return nil, err
		}
	}
	return view.Cond(test, then, els), nil
}

func (r *renderer) list(n Node, s itemScope) (view.View, error) {
	e, err := parseExpr(n.For)
	if err != nil {
		return nil, err
	}
	v, found, err := r.eval(e, s)
	if err != nil {
		return nil, err
	}
	var items []any
	if found {
		var ok bool
		if items, ok = v.([]any); !ok {
			return nil, fmt.Errorf("for %s: %T is not a list: %w", n.For, v, reactive.ErrTypeMismatch)
		}
	}

	views := make([]view.View, len(items))
	for i, it := range items {
		if views[i], err = r.node(*n.Each, itemScope{item: it, index: i, ok: true}); err != nil {
			return nil, fmt.Errorf("for %s[%d]: %w", n.For, i, err)
		}
	}
	each := func(_ any, i int) view.View { return views[i] }

	var l view.ListView
	switch key := n.Key; {
	case key == "index":
		l = view.ForIndex(items, each)
	case strings.HasPrefix(key, "field:"):
		field := key[len("field:"):]
		l = view.ForEachFunc(items, func(a, b any) bool {
			return reflect.DeepEqual(fieldOf(a, field), fieldOf(b, field))
		}, each)
	case allScalar(items):
		l = view.ForEach(items, each)
	default:
		l = view.ForEachFunc(items, reflect.DeepEqual, each)
	}

	if n.Fallback != nil {
		fb, err := r.node(*n.Fallback, s)
		if err != nil {
			return nil, err
		}
		l = l.Fallback(fb)
	}
	return l, nil
}

func fieldOf(v any, field string) any {
	if m, ok := v.(map[string]any); ok {
		return m[field]
	}
	return nil
}

func allScalar(items []any) bool {
	for _, it := range items {
		switch it.(type) {
		case string, int, bool, float64:
		default:
			return false
		}
	}
	return true
}
