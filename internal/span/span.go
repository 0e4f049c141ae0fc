// Package span implements NodeSpan, the flattenable list of display entities
// produced by one view node.
//
// A Span is either empty, a single entity, or a fragment of nested spans.
// Fragments keep their parts by value and are flattened only when the ids
// are needed, so a parent can concatenate child spans without copying ids.
package span

import (
	"strings"

	"github.com/roach88/weft/internal/host"
)

type kind uint8

const (
	kindEmpty kind = iota
	kindNode
	kindFragment
)

// Span is an immutable, ordered sequence of entity ids. The zero value is the
// empty span.
type Span struct {
	kind  kind
	node  host.EntityID
	parts []Span
}

// Empty returns the empty span.
func Empty() Span { return Span{} }

// Node returns a span holding exactly one entity.
func Node(id host.EntityID) Span {
	return Span{kind: kindNode, node: id}
}

// Fragment concatenates parts in order. Empty parts are kept; they contribute
// nothing when flattened.
func Fragment(parts ...Span) Span {
	switch len(parts) {
	case 0:
		return Empty()
	case 1:
		return parts[0]
	}
	return Span{kind: kindFragment, parts: parts}
}

// Count returns the number of entities in the flattened span.
func (s Span) Count() int {
	switch s.kind {
	case kindNode:
		return 1
	case kindFragment:
		n := 0
		for _, p := range s.parts {
			n += p.Count()
		}
		return n
	}
	return 0
}

// IsEmpty reports whether the span holds no entities.
func (s Span) IsEmpty() bool {
	return s.Count() == 0
}

// AppendTo appends the flattened ids to dst and returns the extended slice.
func (s Span) AppendTo(dst []host.EntityID) []host.EntityID {
	switch s.kind {
	case kindNode:
		dst = append(dst, s.node)
	case kindFragment:
		for _, p := range s.parts {
			dst = p.AppendTo(dst)
		}
	}
	return dst
}

// Flatten returns the ids in order. An empty span flattens to nil.
func (s Span) Flatten() []host.EntityID {
	n := s.Count()
	if n == 0 {
		return nil
	}
	return s.AppendTo(make([]host.EntityID, 0, n))
}

// Each calls fn for every id in order and stops early if fn returns false.
func (s Span) Each(fn func(host.EntityID) bool) bool {
	switch s.kind {
	case kindNode:
		return fn(s.node)
	case kindFragment:
		for _, p := range s.parts {
			if !p.Each(fn) {
				return false
			}
		}
	}
	return true
}

// Contains reports whether id appears in the span.
func (s Span) Contains(id host.EntityID) bool {
	found := false
	s.Each(func(e host.EntityID) bool {
		found = e == id
		return !found
	})
	return found
}

// Equal reports whether both spans flatten to the same ids in the same
// order. Nesting is ignored.
func (s Span) Equal(o Span) bool {
	if s.kind == kindNode && o.kind == kindNode {
		return s.node == o.node
	}
	a, b := s.Flatten(), o.Flatten()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s Span) String() string {
	ids := s.Flatten()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
