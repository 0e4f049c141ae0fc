package view

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/reactive"
)

func (t *Tree) newNode(parent *node, hostParent host.EntityID, v View) *node {
	t.next++
	n := &node{id: t.next, view: v, hostParent: hostParent}
	if parent != nil {
		n.parent = parent.id
		n.depth = parent.depth + 1
	}
	t.nodes[n.id] = n
	return n
}

func (t *Tree) buildChild(parent *node, hostParent host.EntityID, v View) *node {
	n := t.newNode(parent, hostParent, normalize(v))
	t.build(n)
	return n
}

func (t *Tree) build(n *node) {
	t.stats.Built++
	switch v := n.view.(type) {
	case EmptyView:
	case TextView:
		n.entity = t.world.Spawn(host.Text(v.text))
		n.owned = true
	case ElementView:
		t.buildElement(n, v)
	case FragmentView:
		for _, c := range v.children {
			n.children = append(n.children, t.buildChild(n, n.hostParent, c).id)
		}
	case CondView:
		n.children = []NodeID{t.buildChild(n, n.hostParent, v.branch()).id}
	case ListView:
		t.buildList(n, v)
	case TemplateView:
		n.scope = reactive.NewScope(cells.Owner(n.id))
		t.render(n)
	}
	n.out = t.compose(n)
	n.state = StateBuilt
}

// reconcileChild brings the child node id in line with v and returns the
// id now occupying that position: id itself when v can be patched in,
// otherwise a freshly built node.
func (t *Tree) reconcileChild(parent *node, id NodeID, v View) NodeID {
	v = normalize(v)
	n, ok := t.nodes[id]
	if !ok {
		return t.buildChild(parent, t.childHost(parent), v).id
	}
	if !sameIdentity(n.view, v) {
		hp := n.hostParent
		t.raze(n)
		return t.buildChild(parent, hp, v).id
	}
	t.patch(n, v)
	return id
}

func (t *Tree) childHost(n *node) host.EntityID {
	if _, ok := n.view.(ElementView); ok {
		return n.entity
	}
	return n.hostParent
}

func (t *Tree) patch(n *node, v View) {
	old := n.view
	n.state = StatePatching
	n.view = v
	switch v := v.(type) {
	case EmptyView:
	case TextView:
		if old.(TextView).text != v.text {
			t.insert(n, host.Text(v.text))
		}
	case ElementView:
		t.patchElement(n, old.(ElementView), v)
	case FragmentView:
		t.patchChildren(n, v.children)
	case CondView:
		t.patchCond(n, old.(CondView), v)
	case ListView:
		t.patchList(n, old.(ListView), v)
	case TemplateView:
		if !templatesEqual(old.(TemplateView).tmpl, v.tmpl) || t.staleAtStart(n) {
			t.render(n)
		}
	}
	n.out = t.compose(n)
	n.state = StateBuilt
}

func (t *Tree) raze(n *node) {
	if n.state == StateRazed {
		return
	}
	n.state = StateRazed
	for _, id := range n.children {
		if c, ok := t.nodes[id]; ok {
			t.raze(c)
		}
	}
	if f, ok := t.nodes[n.fallback]; ok {
		t.raze(f)
	}
	if n.scope != nil {
		n.scope.Dispose(t.world, t.cells)
	}
	if n.owned {
		t.world.Despawn(n.entity)
	}
	n.children = nil
	delete(t.nodes, n.id)
	delete(t.roots, n.id)
	t.stats.Razed++
}

func (t *Tree) insert(n *node, c host.Component) {
	if err := t.world.Insert(n.entity, c); err != nil {
		t.fail(n, err)
	}
}

func (t *Tree) buildElement(n *node, v ElementView) {
	switch {
	case v.adopt != host.NoEntity && t.world.Exists(v.adopt):
		n.entity = v.adopt
		for _, c := range v.components {
			t.insert(n, c)
		}
	default:
		if v.adopt != host.NoEntity {
			t.fail(n, fmt.Errorf("adopt %s: %w", v.adopt, reactive.ErrStaleHandle))
		}
		n.entity = t.world.Spawn(v.components...)
		n.owned = true
	}
	// Parented before the children build so their inherited lookups see the
	// ancestry. The enclosing attach fixes the order.
	if n.hostParent != host.NoEntity {
		if err := t.world.SetParent(n.entity, n.hostParent); err != nil {
			t.fail(n, err)
		}
	}
	for _, c := range v.children {
		n.children = append(n.children, t.buildChild(n, n.entity, c).id)
	}
	t.attach(n)
}

func (t *Tree) patchElement(n *node, old, v ElementView) {
	prev := componentsByKind(old.components)
	next := componentsByKind(v.components)
	for _, c := range v.components {
		if p, ok := prev[c.Kind()]; ok && reflect.DeepEqual(p, c) {
			continue
		}
		t.insert(n, c)
	}
	for _, kind := range kindsOf(old.components) {
		if _, ok := next[kind]; ok {
			continue
		}
		if err := t.world.Remove(n.entity, kind); err != nil {
			t.fail(n, err)
		}
	}
	t.patchChildren(n, v.children)
	t.attach(n)
}

// patchChildren matches children by position. Surplus old children are
// razed before new ones are built.
func (t *Tree) patchChildren(n *node, views []View) {
	if len(n.children) > len(views) {
		for _, id := range n.children[len(views):] {
			if c, ok := t.nodes[id]; ok {
				t.raze(c)
			}
		}
	}
	ids := make([]NodeID, 0, len(views))
	for i, v := range views {
		if i < len(n.children) {
			ids = append(ids, t.reconcileChild(n, n.children[i], v))
			continue
		}
		ids = append(ids, t.buildChild(n, t.childHost(n), v).id)
	}
	n.children = ids
}

func (t *Tree) patchCond(n *node, old, v CondView) {
	if len(n.children) == 0 {
		n.children = []NodeID{t.buildChild(n, n.hostParent, v.branch()).id}
		return
	}
	if old.test == v.test {
		n.children[0] = t.reconcileChild(n, n.children[0], v.branch())
		return
	}
	if c, ok := t.nodes[n.children[0]]; ok {
		t.raze(c)
	}
	n.children[0] = t.buildChild(n, n.hostParent, v.branch()).id
}

// render invokes the node's template and reconciles its output.
//
// A stale handle razes the output, resets the hook scope and renders once
// more from scratch. A type mismatch (or a second stale handle) razes the
// output and leaves the node empty. Any other error keeps the previous
// output. In every case the node depends on what it read before failing,
// so a change to those sources retries it.
func (t *Tree) render(n *node) {
	n.rendered = t.pass
	n.err = nil
	out, err := t.invoke(n)
	if err != nil && errors.Is(err, reactive.ErrStaleHandle) {
		t.razeChildren(n)
		n.scope.Dispose(t.world, t.cells)
		n.scope = reactive.NewScope(cells.Owner(n.id))
		out, err = t.invoke(n)
	}
	switch {
	case err == nil:
		if len(n.children) == 0 {
			n.children = []NodeID{t.buildChild(n, n.hostParent, out).id}
		} else {
			n.children[0] = t.reconcileChild(n, n.children[0], out)
		}
	case errors.Is(err, reactive.ErrTypeMismatch), errors.Is(err, reactive.ErrStaleHandle):
		t.razeChildren(n)
		t.fail(n, err)
	default:
		t.fail(n, err)
	}
}

func (t *Tree) invoke(n *node) (v View, err error) {
	t.stats.Rendered++
	cx := reactive.NewCx(t.world, t.cells, n.scope, n.hostParent)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("template panicked: %v", r)
		}
		n.deps = cx.Deps()
	}()
	return n.view.(TemplateView).tmpl.Render(cx)
}

func (t *Tree) razeChildren(n *node) {
	for _, id := range n.children {
		if c, ok := t.nodes[id]; ok {
			t.raze(c)
		}
	}
	n.children = nil
}

func (t *Tree) buildList(n *node, v ListView) {
	if err := v.validate(); err != nil {
		t.fail(n, err)
		v.items = nil
	}
	for i, it := range v.items {
		n.children = append(n.children, t.buildChild(n, n.hostParent, t.itemView(n, v, it, i)).id)
	}
	n.items = slices.Clone(v.items)
	n.list = ListStats{Built: len(v.items)}
	t.syncFallback(n, v)
}

func (t *Tree) patchList(n *node, old, v ListView) {
	if err := v.validate(); err != nil {
		n.view = old
		t.fail(n, err)
		return
	}
	var (
		from  []int
		moved int
	)
	if v.policy == policyIndexed {
		from = make([]int, len(v.items))
		for j := range from {
			from[j] = -1
			if j < len(n.items) && v.eq(n.items[j], v.items[j]) {
				from[j] = j
			}
		}
	} else {
		var err error
		from, moved, err = t.diffItems(n.items, v)
		if err != nil {
			n.view = old
			t.fail(n, err)
			return
		}
	}

	stats := ListStats{Moved: moved}
	kept := make([]bool, len(n.children))
	for _, i := range from {
		if i >= 0 {
			kept[i] = true
		}
	}
	for i, id := range n.children {
		if kept[i] {
			continue
		}
		if c, ok := t.nodes[id]; ok {
			t.raze(c)
		}
		stats.Razed++
	}
	if len(v.items) > 0 && n.fallback != 0 {
		t.razeFallback(n)
	}

	ids := make([]NodeID, len(v.items))
	for j, it := range v.items {
		if i := from[j]; i >= 0 {
			ids[j] = t.reconcileChild(n, n.children[i], t.itemView(n, v, it, j))
			stats.Retained++
			continue
		}
		ids[j] = t.buildChild(n, n.hostParent, t.itemView(n, v, it, j)).id
		stats.Built++
	}
	n.children = ids
	n.items = slices.Clone(v.items)
	n.list = stats
	t.syncFallback(n, v)
}

// itemView calls the list's item callback. A panicking callback fails the
// list node and leaves that slot empty; the other slots are unaffected.
func (t *Tree) itemView(n *node, v ListView, it any, i int) (out View) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(n, fmt.Errorf("list item %d panicked: %v", i, r))
			out = EmptyView{}
		}
	}()
	return v.each(it, i)
}

// diffItems runs the keyed diff, reporting a panicking comparator as a
// reconciliation error.
func (t *Tree) diffItems(old []any, v ListView) (from []int, moved int, err error) {
	defer func() {
		if r := recover(); r != nil {
			from, moved = nil, 0
			err = fmt.Errorf("list comparator panicked: %v: %w", r, ErrReconciliation)
		}
	}()
	return diff(old, v.items, v.eq, v.policy == policyComparator)
}

func (t *Tree) syncFallback(n *node, v ListView) {
	switch {
	case len(n.items) > 0 || v.fallback == nil:
		t.razeFallback(n)
	case n.fallback == 0:
		n.fallback = t.buildChild(n, n.hostParent, v.fallback).id
	default:
		n.fallback = t.reconcileChild(n, n.fallback, v.fallback)
	}
}

func (t *Tree) razeFallback(n *node) {
	if f, ok := t.nodes[n.fallback]; ok {
		t.raze(f)
	}
	n.fallback = 0
}
