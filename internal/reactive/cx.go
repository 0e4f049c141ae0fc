package reactive

import (
	"fmt"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
)

// Cx is the reactive context handed to a template for one construct or
// patch. It is not retained after the call returns.
type Cx struct {
	world  host.World
	cells  *cells.Store
	scope  *Scope
	deps   *Set
	parent host.EntityID
	calls  int
}

// NewCx creates a context bound to scope. parent is the display entity the
// node's output will be attached under; it is the starting point for
// inherited component lookups and may be host.NoEntity.
func NewCx(w host.World, cs *cells.Store, scope *Scope, parent host.EntityID) *Cx {
	return &Cx{
		world:  w,
		cells:  cs,
		scope:  scope,
		deps:   NewSet(),
		parent: parent,
	}
}

// Deps returns the dependencies recorded so far.
func (cx *Cx) Deps() *Set { return cx.deps }

// World gives untracked access to the host store.
func (cx *Cx) World() host.World { return cx.world }

// Cells gives untracked access to the cell store, e.g. to allocate
// unscoped cells.
func (cx *Cx) Cells() *cells.Store { return cx.cells }

// Parent returns the display entity the output attaches under.
func (cx *Cx) Parent() host.EntityID { return cx.parent }

func (cx *Cx) next(kind slotKind) (*slot, bool) {
	i := cx.calls
	cx.calls++
	return cx.scope.at(cx.world, cx.cells, i, kind)
}

// ReadResource returns a host resource and records it as a dependency. An
// absent resource is recorded at version 0, so its later creation makes the
// node dirty.
func (cx *Cx) ReadResource(key string) (any, error) {
	cx.deps.Record(ResourceSource(key), cx.world.ResourceVersion(key))
	v, ok := cx.world.Resource(key)
	if !ok {
		return nil, fmt.Errorf("resource %q: %w", key, ErrMissingSource)
	}
	return v, nil
}

// ReadComponent returns a component of an entity and records it as a
// dependency.
func (cx *Cx) ReadComponent(id host.EntityID, kind string) (host.Component, error) {
	if !cx.world.Exists(id) {
		return nil, fmt.Errorf("component %s on %s: %w: %w", kind, id, ErrStaleHandle, host.ErrNoEntity)
	}
	cx.deps.Record(ComponentSource(id, kind), cx.world.ComponentVersion(id, kind))
	c, ok := cx.world.Component(id, kind)
	if !ok {
		return nil, fmt.Errorf("component %s on %s: %w", kind, id, ErrMissingSource)
	}
	return c, nil
}

// ReadInheritedComponent searches the parent display entity and its
// ancestors for a component of the given kind and returns the first match
// with the entity holding it. Every entity visited is recorded, so adding
// the component closer to the node later makes it dirty.
func (cx *Cx) ReadInheritedComponent(kind string) (host.Component, host.EntityID, error) {
	id := cx.parent
	for id != host.NoEntity && cx.world.Exists(id) {
		cx.deps.Record(ComponentSource(id, kind), cx.world.ComponentVersion(id, kind))
		if c, ok := cx.world.Component(id, kind); ok {
			return c, id, nil
		}
		p, ok := cx.world.Parent(id)
		if !ok {
			break
		}
		id = p
	}
	return nil, host.NoEntity, fmt.Errorf("inherited component %s: %w", kind, ErrMissingSource)
}

// CreateChildEntity returns an entity owned by the node, spawned on the
// first call at this position and returned unchanged on later passes. It is
// despawned when the node is razed. Use it to reference an element before
// the element is built (view.Element(...).Adopt(id)).
func (cx *Cx) CreateChildEntity(components ...host.Component) host.EntityID {
	sl, ok := cx.next(slotEntity)
	if !ok || !cx.world.Exists(sl.entity) {
		sl.entity = cx.world.Spawn(components...)
	}
	return sl.entity
}

// Resource reads a resource as a T.
func Resource[T any](cx *Cx, key string) (T, error) {
	var zero T
	v, err := cx.ReadResource(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resource %q holds %T, read as %T: %w", key, v, zero, ErrTypeMismatch)
	}
	return t, nil
}

// Component reads the component of type T from entity id. The kind is taken
// from the zero value of T, so T must be a value type whose Kind does not
// depend on its contents (host.Name, host.Text); use ReadComponent for
// keyed kinds such as host.Attr.
func Component[T host.Component](cx *Cx, id host.EntityID) (T, error) {
	var zero T
	c, err := cx.ReadComponent(id, zero.Kind())
	if err != nil {
		return zero, err
	}
	t, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("component %s holds %T, read as %T: %w", zero.Kind(), c, zero, ErrTypeMismatch)
	}
	return t, nil
}

// InheritedComponent is the typed form of ReadInheritedComponent.
func InheritedComponent[T host.Component](cx *Cx) (T, host.EntityID, error) {
	var zero T
	c, id, err := cx.ReadInheritedComponent(zero.Kind())
	if err != nil {
		return zero, host.NoEntity, err
	}
	t, ok := c.(T)
	if !ok {
		return zero, host.NoEntity, fmt.Errorf("inherited %s holds %T: %w", zero.Kind(), c, ErrTypeMismatch)
	}
	return t, id, nil
}

// CreateMutable returns the node-scoped cell at this hook position,
// allocating it with initial on the first pass. initial is ignored
// afterwards.
func CreateMutable[T any](cx *Cx, initial T) cells.Handle[T] {
	sl, ok := cx.next(slotCell)
	if ok && cx.cells.Alive(sl.cell) {
		return cells.HandleOf[T](sl.cell)
	}
	h := cells.AllocateScoped(cx.cells, cx.scope.Owner(), initial)
	sl.cell = h.ID()
	return h
}

// ReadMutable returns the cell's value and records it as a dependency.
func ReadMutable[T any](cx *Cx, h cells.Handle[T]) (T, error) {
	v, err := cells.Get(cx.cells, h)
	if err != nil {
		return v, err
	}
	ver, _ := cx.cells.Version(h.ID())
	cx.deps.Record(CellSource(h.ID()), ver)
	return v, nil
}

// ReadMutableOr is ReadMutable that treats any read failure, typically a
// stale handle, as absent and returns def.
func ReadMutableOr[T any](cx *Cx, h cells.Handle[T], def T) T {
	v, err := ReadMutable(cx, h)
	if err != nil {
		return def
	}
	return v
}

// WriteMutable sets the cell's value. Writing is not a read and records no
// dependency.
func WriteMutable[T any](cx *Cx, h cells.Handle[T], v T) error {
	return cells.Set(cx.cells, h, v)
}

// UpdateMutable applies fn to the cell with a single version bump.
func UpdateMutable[T any](cx *Cx, h cells.Handle[T], fn func(T) T) error {
	return cells.Update(cx.cells, h, fn)
}

// Memo returns the value computed for key, calling compute only when key
// differs from the key seen at this position on the previous pass.
func Memo[T any, K comparable](cx *Cx, key K, compute func() T) T {
	return MemoCleanup(cx, key, func() (T, func()) { return compute(), nil })
}

// MemoCleanup is Memo for values that hold resources. The cleanup returned
// with a value runs when the value is replaced or the node is razed.
func MemoCleanup[T any, K comparable](cx *Cx, key K, compute func() (T, func())) T {
	sl, ok := cx.next(slotMemo)
	if ok && sl.set && sl.key == any(key) {
		v, _ := sl.value.(T)
		return v
	}
	if sl.cleanup != nil {
		sl.cleanup()
	}
	v, cleanup := compute()
	sl.key, sl.value, sl.set, sl.cleanup = key, v, true, cleanup
	return v
}

// Effect runs fn when key differs from the previous pass (and on the first
// pass). The function fn returns, if any, runs before the next run and when
// the node is razed.
func Effect[K comparable](cx *Cx, key K, fn func() func()) {
	sl, ok := cx.next(slotEffect)
	if ok && sl.key == any(key) {
		return
	}
	if sl.cleanup != nil {
		sl.cleanup()
	}
	sl.key = key
	sl.cleanup = fn()
}
