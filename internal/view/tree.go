package view

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/reactive"
	"github.com/roach88/weft/internal/span"
)

// NodeID identifies a node in a Tree. Ids are issued in creation order and
// never reused.
type NodeID uint64

func (id NodeID) String() string { return fmt.Sprintf("n%d", uint64(id)) }

// State is the lifecycle state of a node.
type State uint8

const (
	StateUnbuilt State = iota
	StateBuilt
	StatePatching
	StateRazed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StatePatching:
		return "patching"
	case StateRazed:
		return "razed"
	default:
		return "unknown"
	}
}

type node struct {
	id     NodeID
	parent NodeID
	depth  int
	view   View
	state  State
	out    span.Span

	// hostParent is the display entity this node's output attaches under.
	hostParent host.EntityID

	children []NodeID

	// element and text
	entity   host.EntityID
	owned    bool
	attached []host.EntityID

	// template
	scope    *reactive.Scope
	deps     *reactive.Set
	rendered uint64
	staleAt  uint64 // pass at whose start deps were stale

	// list
	items    []any
	fallback NodeID
	list     ListStats

	err error
}

type root struct {
	target host.EntityID
}

// Stats counts node lifecycle events since the tree was created.
type Stats struct {
	Built    int // nodes constructed
	Rendered int // template invocations
	Razed    int // nodes razed
}

// Tree is an arena of view nodes realized on a host world.
type Tree struct {
	world  host.World
	cells  *cells.Store
	oracle reactive.Oracle

	next  NodeID
	pass  uint64
	nodes map[NodeID]*node
	roots map[NodeID]*root
	// attached is the child list last given to each root target.
	attached map[host.EntityID][]host.EntityID
	errs     []NodeError
	stats    Stats
}

// NewTree creates an empty tree over w and cs.
func NewTree(w host.World, cs *cells.Store) *Tree {
	return &Tree{
		world:  w,
		cells:  cs,
		oracle: reactive.Oracle{World: w, Cells: cs},
		nodes:  make(map[NodeID]*node),
		roots:  make(map[NodeID]*root),

		attached: make(map[host.EntityID][]host.EntityID),
	}
}

// Construct builds v as a new root. When attach is not host.NoEntity the
// root's flattened output becomes the child list of attach and is kept in
// sync as the output changes. Roots sharing an attach entity own its child
// list together: their outputs are concatenated in construction order.
func (t *Tree) Construct(v View, attach host.EntityID) NodeID {
	n := t.buildChild(nil, attach, v)
	r := &root{target: attach}
	t.roots[n.id] = r
	t.attachRoot(n, r)
	return n.id
}

// BeginPass starts a new reconciliation pass and records which templates
// are stale at its start. A template rendered during the current pass is
// not rendered again by Patch until the next one, and a template reached
// through its parent's re-render is only re-rendered for dependencies that
// had changed before the pass began. Changes made while a pass runs are
// picked up by the following pass.
func (t *Tree) BeginPass() uint64 {
	t.pass++
	for _, n := range t.nodes {
		if n.scope != nil && n.deps.Stale(t.oracle) {
			n.staleAt = t.pass
		}
	}
	return t.pass
}

// staleAtStart reports whether n should re-render for its own
// dependencies when its parent re-renders. Outside a pass it is plain
// staleness.
func (t *Tree) staleAtStart(n *node) bool {
	if t.pass == 0 {
		return n.deps.Stale(t.oracle)
	}
	return n.staleAt == t.pass && n.rendered != t.pass
}

// Dirty returns the template nodes whose recorded dependencies changed,
// parents before descendants (by depth, then creation order).
func (t *Tree) Dirty() []NodeID {
	var out []*node
	for _, n := range t.nodes {
		if n.scope != nil && n.deps.Stale(t.oracle) {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *node) int {
		if c := cmp.Compare(a.depth, b.depth); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	ids := make([]NodeID, len(out))
	for i, n := range out {
		ids[i] = n.id
	}
	return ids
}

// Patch re-renders the template node id if its dependencies changed and it
// was not already rendered in the current pass. It reports whether the
// node's output span changed; if so the new output has been attached.
// Failures inside the subtree are recorded for DrainErrors.
func (t *Tree) Patch(id NodeID) (bool, error) {
	n, ok := t.nodes[id]
	if !ok {
		return false, fmt.Errorf("patch %s: %w", id, ErrUnknownNode)
	}
	if n.scope == nil || (t.pass > 0 && n.rendered == t.pass) || !n.deps.Stale(t.oracle) {
		return false, nil
	}
	prev := n.out
	n.state = StatePatching
	t.render(n)
	n.out = t.compose(n)
	n.state = StateBuilt
	if n.out.Equal(prev) {
		return false, nil
	}
	t.propagate(n)
	return true, nil
}

// Raze tears down the subtree at id: scoped cells are released, effects
// cleaned up and owned entities despawned.
func (t *Tree) Raze(id NodeID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("raze %s: %w", id, ErrUnknownNode)
	}
	parent := t.nodes[n.parent]
	r, isRoot := t.roots[id]
	t.raze(n)
	if parent == nil {
		if isRoot {
			return t.attachTarget(r.target)
		}
		return nil
	}
	if i := slices.Index(parent.children, id); i >= 0 {
		parent.children = slices.Delete(parent.children, i, i+1)
		if i < len(parent.items) {
			parent.items = slices.Delete(parent.items, i, i+1)
		}
	}
	if parent.fallback == id {
		parent.fallback = 0
	}
	if _, ok := parent.view.(ElementView); ok {
		t.attach(parent)
		return nil
	}
	parent.out = t.compose(parent)
	t.propagate(parent)
	return nil
}

// Span returns the output of node id.
func (t *Tree) Span(id NodeID) (span.Span, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return span.Empty(), false
	}
	return n.out, true
}

// State returns the lifecycle state of id. Ids no longer in the tree
// report StateRazed.
func (t *Tree) State(id NodeID) State {
	if n, ok := t.nodes[id]; ok {
		return n.state
	}
	return StateRazed
}

// Kind returns the variant of node id.
func (t *Tree) Kind(id NodeID) (Kind, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, false
	}
	return n.view.Kind(), true
}

// Children returns the child nodes of id in output order.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	if n.fallback != 0 {
		return []NodeID{n.fallback}
	}
	return slices.Clone(n.children)
}

// Entity returns the display entity of an element or text node.
func (t *Tree) Entity(id NodeID) (host.EntityID, bool) {
	n, ok := t.nodes[id]
	if !ok || n.entity == host.NoEntity {
		return host.NoEntity, false
	}
	return n.entity, true
}

// Deps returns the dependencies recorded by a template node's last render.
func (t *Tree) Deps(id NodeID) []reactive.Dependency {
	if n, ok := t.nodes[id]; ok {
		return n.deps.Dependencies()
	}
	return nil
}

// Err returns the error from the node's last construct or patch, if any.
func (t *Tree) Err(id NodeID) error {
	if n, ok := t.nodes[id]; ok {
		return n.err
	}
	return nil
}

// ListStats returns the counts from the last reconciliation of a list node.
func (t *Tree) ListStats(id NodeID) (ListStats, bool) {
	n, ok := t.nodes[id]
	if !ok || n.view.Kind() != KindList {
		return ListStats{}, false
	}
	return n.list, true
}

// Len returns the number of live nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Stats returns cumulative lifecycle counts.
func (t *Tree) Stats() Stats { return t.stats }

// DrainErrors returns the node errors recorded since the previous drain.
func (t *Tree) DrainErrors() []NodeError {
	out := t.errs
	t.errs = nil
	return out
}

func (t *Tree) fail(n *node, err error) {
	n.err = err
	t.errs = append(t.errs, NodeError{Node: n.id, Kind: n.view.Kind(), Err: err})
}

// propagate re-composes the spans of n's ancestors after n's output
// changed, stopping at the first element (which re-attaches its children)
// or at the root (which re-attaches to its target).
func (t *Tree) propagate(n *node) {
	cur := n
	for cur.parent != 0 {
		p, ok := t.nodes[cur.parent]
		if !ok {
			return
		}
		if _, ok := p.view.(ElementView); ok {
			t.attach(p)
			return
		}
		prev := p.out
		p.out = t.compose(p)
		if p.out.Equal(prev) {
			return
		}
		cur = p
	}
	if r, ok := t.roots[cur.id]; ok {
		t.attachRoot(cur, r)
	}
}

func (t *Tree) attachRoot(n *node, r *root) {
	if err := t.attachTarget(r.target); err != nil {
		t.fail(n, err)
	}
}

// attachTarget makes the outputs of every root attached to target, in
// construction order, the host child list of target.
func (t *Tree) attachTarget(target host.EntityID) error {
	if target == host.NoEntity {
		return nil
	}
	var ids []NodeID
	for id, r := range t.roots {
		if r.target == target {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	var flat []host.EntityID
	for _, id := range ids {
		flat = t.nodes[id].out.AppendTo(flat)
	}
	if slices.Equal(flat, t.attached[target]) {
		return nil
	}
	if err := t.world.ReparentChildren(target, flat); err != nil {
		return fmt.Errorf("attach to %s: %w", target, err)
	}
	if len(flat) == 0 {
		delete(t.attached, target)
	} else {
		t.attached[target] = flat
	}
	return nil
}

// attach makes the flattened output of an element's children its host
// child list, skipping the host call when nothing changed.
func (t *Tree) attach(n *node) {
	flat := t.fragment(n.children).Flatten()
	if slices.Equal(flat, n.attached) {
		return
	}
	if err := t.world.ReparentChildren(n.entity, flat); err != nil {
		t.fail(n, fmt.Errorf("attach children: %w", err))
		return
	}
	n.attached = flat
}

func (t *Tree) fragment(ids []NodeID) span.Span {
	parts := make([]span.Span, 0, len(ids))
	for _, id := range ids {
		if c, ok := t.nodes[id]; ok {
			parts = append(parts, c.out)
		}
	}
	return span.Fragment(parts...)
}

// compose computes a node's output from its own entity or its children.
func (t *Tree) compose(n *node) span.Span {
	switch n.view.(type) {
	case EmptyView:
		return span.Empty()
	case ElementView, TextView:
		return span.Node(n.entity)
	}
	if n.fallback != 0 {
		if f, ok := t.nodes[n.fallback]; ok {
			return f.out
		}
	}
	return t.fragment(n.children)
}
