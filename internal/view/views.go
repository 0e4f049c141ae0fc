package view

import (
	"fmt"
	"reflect"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/reactive"
)

// Kind names a view variant.
type Kind uint8

const (
	KindEmpty Kind = iota + 1
	KindElement
	KindText
	KindFragment
	KindCond
	KindList
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindFragment:
		return "fragment"
	case KindCond:
		return "cond"
	case KindList:
		return "list"
	case KindTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// View describes display output. Only the variants in this package
// implement it; user-defined output is expressed as a Template.
type View interface {
	Kind() Kind
	sealed()
}

// Template renders a View from reactive state. Everything read through cx
// becomes a dependency of the template's node.
//
// When a parent re-renders and yields a template of the same Go type, the
// node is kept (with its hook state) and re-rendered only if the template
// is not equal to the previous one or its dependencies changed. Equality
// uses an Equal(Template) bool method when the template has one, and == for
// comparable types; other templates always re-render.
type Template interface {
	Render(cx *reactive.Cx) (View, error)
}

type equaler interface {
	Equal(other Template) bool
}

// Identified is implemented by templates whose Go type alone does not
// decide whether two instances share hook state. Instances of one type
// with different identities are razed and rebuilt rather than patched.
type Identified interface {
	Identity() any
}

// EmptyView produces no output.
type EmptyView struct{}

// Empty returns the empty view.
func Empty() EmptyView { return EmptyView{} }

func (EmptyView) Kind() Kind { return KindEmpty }
func (EmptyView) sealed()    {}

// ElementView is a display entity with components and children.
type ElementView struct {
	components []host.Component
	children   []View
	adopt      host.EntityID
}

// Element describes an entity carrying components.
func Element(components ...host.Component) ElementView {
	return ElementView{components: components}
}

// Children returns a copy of e with the given child views.
func (e ElementView) Children(children ...View) ElementView {
	e.children = children
	return e
}

// Adopt returns a copy of e realized on an existing entity, typically one
// from reactive.Cx.CreateChildEntity. The element inserts its components on
// that entity but does not despawn it when razed.
func (e ElementView) Adopt(id host.EntityID) ElementView {
	e.adopt = id
	return e
}

func (ElementView) Kind() Kind { return KindElement }
func (ElementView) sealed()    {}

// TextView is a text display entity.
type TextView struct {
	text string
}

// Text describes a text entity. The content is NFC-normalized so
// canonically equivalent strings compare equal and never cause a host
// mutation.
func Text(s string) TextView {
	return TextView{text: norm.NFC.String(s)}
}

// Textf is Text with fmt.Sprintf formatting.
func Textf(format string, args ...any) TextView {
	return Text(fmt.Sprintf(format, args...))
}

func (TextView) Kind() Kind { return KindText }
func (TextView) sealed()    {}

// FragmentView concatenates its children's output.
type FragmentView struct {
	children []View
}

// Fragment groups views without an entity of its own. Children are matched
// by position when the fragment is patched.
func Fragment(children ...View) FragmentView {
	return FragmentView{children: children}
}

func (FragmentView) Kind() Kind { return KindFragment }
func (FragmentView) sealed()    {}

// CondView shows one of two branches.
type CondView struct {
	test bool
	then View
	els  View
}

// Cond shows then when test holds and els otherwise. A nil branch is Empty.
// Switching branches razes the old branch before the new one is built.
func Cond(test bool, then, els View) CondView {
	return CondView{test: test, then: then, els: els}
}

func (c CondView) branch() View {
	if c.test {
		return c.then
	}
	return c.els
}

func (CondView) Kind() Kind { return KindCond }
func (CondView) sealed()    {}

// TemplateView wraps a Template.
type TemplateView struct {
	tmpl Template
}

// Use embeds a template.
func Use(t Template) TemplateView {
	return TemplateView{tmpl: t}
}

type funcTemplate struct {
	key any
	fn  func(cx *reactive.Cx) (View, error)
}

func (f funcTemplate) Render(cx *reactive.Cx) (View, error) {
	return f.fn(cx)
}

func (f funcTemplate) Equal(other Template) bool {
	g, ok := other.(funcTemplate)
	return ok && equalValues(f.key, g.key)
}

// Func embeds a template written as a function. key stands in for the
// function's inputs: a parent re-render that passes an equal key does not
// re-render fn unless its own dependencies changed.
func Func(key any, fn func(cx *reactive.Cx) (View, error)) TemplateView {
	return Use(funcTemplate{key: key, fn: fn})
}

// Template returns the wrapped template.
func (v TemplateView) Template() Template { return v.tmpl }

func (TemplateView) Kind() Kind { return KindTemplate }
func (TemplateView) sealed()    {}

func normalize(v View) View {
	if v == nil {
		return EmptyView{}
	}
	return v
}

// sameIdentity reports whether a node built for a can be patched to b
// instead of being razed and rebuilt.
func sameIdentity(a, b View) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case ElementView:
		return a.adopt == b.(ElementView).adopt
	case ListView:
		return a.policy == b.(ListView).policy
	case TemplateView:
		bt := b.(TemplateView).tmpl
		if reflect.TypeOf(a.tmpl) != reflect.TypeOf(bt) {
			return false
		}
		ai, ok := a.tmpl.(Identified)
		if !ok {
			return true
		}
		return equalValues(ai.Identity(), bt.(Identified).Identity())
	}
	return true
}

func templatesEqual(a, b Template) bool {
	if e, ok := a.(equaler); ok {
		return e.Equal(b)
	}
	return equalValues(a, b)
}

// equalValues is == that reports false instead of panicking on
// incomparable dynamic types.
func equalValues(a, b any) (eq bool) {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func componentsByKind(cs []host.Component) map[string]host.Component {
	out := make(map[string]host.Component, len(cs))
	for _, c := range cs {
		out[c.Kind()] = c
	}
	return out
}

func kindsOf(cs []host.Component) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Kind())
	}
	slices.Sort(out)
	return slices.Compact(out)
}
