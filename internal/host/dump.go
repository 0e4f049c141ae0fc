package host

import (
	"slices"
	"strconv"
	"strings"
)

// Kinds returns the component kinds held by id, sorted.
func (m *Memory) Kinds(id EntityID) []string {
	e, ok := m.entities[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(e.components))
	for k := range e.components {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Roots returns the live entities without a parent, in spawn order.
func (m *Memory) Roots() []EntityID {
	var out []EntityID
	for id, e := range m.entities {
		if e.parent == NoEntity {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Dump renders the subtrees under roots as indented text, one entity per
// line. Entity ids are omitted so dumps are stable across runs:
//
//	ul class=list
//	  li
//	    "first"
//
// A line holds the Name component, then attributes sorted by key, then the
// quoted Text component. Entities with none of those print as "-".
func Dump(m *Memory, roots ...EntityID) string {
	var b strings.Builder
	for _, id := range roots {
		dump(&b, m, id, 0)
	}
	return b.String()
}

func dump(b *strings.Builder, m *Memory, id EntityID, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(Label(m, id))
	b.WriteByte('\n')
	for _, c := range m.Children(id) {
		dump(b, m, c, depth+1)
	}
}

// Label is the single-line form of one entity used by Dump.
func Label(m *Memory, id EntityID) string {
	var parts []string
	if c, ok := m.Component(id, Name("").Kind()); ok {
		parts = append(parts, string(c.(Name)))
	}
	for _, k := range m.Kinds(id) {
		if !strings.HasPrefix(k, "attr:") {
			continue
		}
		c, _ := m.Component(id, k)
		if a, ok := c.(Attr); ok {
			parts = append(parts, a.Key+"="+a.Value)
		}
	}
	if c, ok := m.Component(id, Text("").Kind()); ok {
		parts = append(parts, strconv.Quote(string(c.(Text))))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
