package host

import (
	"fmt"
	"slices"
)

// Op names a host mutation.
type Op string

const (
	OpSpawn    Op = "spawn"
	OpDespawn  Op = "despawn"
	OpInsert   Op = "insert"
	OpRemove   Op = "remove"
	OpReparent Op = "reparent"
	OpResource Op = "resource"
)

// Mutation describes one change applied to a Memory world.
type Mutation struct {
	Tick   uint64
	Op     Op
	Entity EntityID
	Kind   string // component kind or resource key
}

// Stats counts mutations by operation. Resource writes are tracked
// separately because they come from the application, not the view layer.
type Stats struct {
	Spawned    int
	Despawned  int
	Inserted   int
	Removed    int
	Reparented int
	Resources  int
}

// Sub returns the per-field difference s - prev.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		Spawned:    s.Spawned - prev.Spawned,
		Despawned:  s.Despawned - prev.Despawned,
		Inserted:   s.Inserted - prev.Inserted,
		Removed:    s.Removed - prev.Removed,
		Reparented: s.Reparented - prev.Reparented,
		Resources:  s.Resources - prev.Resources,
	}
}

// Structural returns the number of entity/component mutations, excluding
// resource writes.
func (s Stats) Structural() int {
	return s.Spawned + s.Despawned + s.Inserted + s.Removed + s.Reparented
}

// StatsReporter is implemented by worlds that count their mutations.
type StatsReporter interface {
	Stats() Stats
}

type versioned struct {
	value   any
	version uint64
}

type entity struct {
	components map[string]versioned
	parent     EntityID
	children   []EntityID
}

// Memory is an in-process World. It is not safe for concurrent use; the
// reconciliation core only touches it from the update goroutine.
type Memory struct {
	tick      uint64
	next      EntityID
	entities  map[EntityID]*entity
	resources map[string]versioned
	stats     Stats
	observers []func(Mutation)
}

var _ World = (*Memory)(nil)

// NewMemory creates an empty world.
func NewMemory() *Memory {
	return &Memory{
		entities:  make(map[EntityID]*entity),
		resources: make(map[string]versioned),
	}
}

// Observe registers fn to be called after every mutation.
func (m *Memory) Observe(fn func(Mutation)) {
	m.observers = append(m.observers, fn)
}

// Stats returns cumulative mutation counts.
func (m *Memory) Stats() Stats {
	return m.stats
}

// Len returns the number of live entities.
func (m *Memory) Len() int {
	return len(m.entities)
}

func (m *Memory) emit(op Op, id EntityID, kind string) {
	for _, fn := range m.observers {
		fn(Mutation{Tick: m.tick, Op: op, Entity: id, Kind: kind})
	}
}

// Spawn implements World.
func (m *Memory) Spawn(components ...Component) EntityID {
	m.tick++
	m.next++
	id := m.next
	e := &entity{components: make(map[string]versioned, len(components))}
	for _, c := range components {
		e.components[c.Kind()] = versioned{value: c, version: m.tick}
	}
	m.entities[id] = e
	m.stats.Spawned++
	m.emit(OpSpawn, id, "")
	return id
}

// Despawn implements World. Children of the despawned entity are orphaned,
// not destroyed: the views that own them despawn them separately.
func (m *Memory) Despawn(id EntityID) {
	e, ok := m.entities[id]
	if !ok {
		return
	}
	m.tick++
	if p, ok := m.entities[e.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c EntityID) bool { return c == id })
	}
	for _, c := range e.children {
		if ce, ok := m.entities[c]; ok {
			ce.parent = NoEntity
		}
	}
	delete(m.entities, id)
	m.stats.Despawned++
	m.emit(OpDespawn, id, "")
}

// Exists implements World.
func (m *Memory) Exists(id EntityID) bool {
	_, ok := m.entities[id]
	return ok
}

// Insert implements World. Inserting always bumps the component version,
// even when the value is unchanged.
func (m *Memory) Insert(id EntityID, c Component) error {
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("insert %s on %s: %w", c.Kind(), id, ErrNoEntity)
	}
	m.tick++
	e.components[c.Kind()] = versioned{value: c, version: m.tick}
	m.stats.Inserted++
	m.emit(OpInsert, id, c.Kind())
	return nil
}

// Remove implements World. Removing an absent component is not an error.
func (m *Memory) Remove(id EntityID, kind string) error {
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("remove %s from %s: %w", kind, id, ErrNoEntity)
	}
	if _, ok := e.components[kind]; !ok {
		return nil
	}
	m.tick++
	delete(e.components, kind)
	m.stats.Removed++
	m.emit(OpRemove, id, kind)
	return nil
}

// Component implements World.
func (m *Memory) Component(id EntityID, kind string) (Component, bool) {
	e, ok := m.entities[id]
	if !ok {
		return nil, false
	}
	v, ok := e.components[kind]
	if !ok {
		return nil, false
	}
	return v.value.(Component), true
}

// ComponentVersion implements World.
func (m *Memory) ComponentVersion(id EntityID, kind string) uint64 {
	e, ok := m.entities[id]
	if !ok {
		return 0
	}
	return e.components[kind].version
}

// SetResource stores a resource value and bumps its version.
func (m *Memory) SetResource(key string, value any) {
	m.tick++
	m.resources[key] = versioned{value: value, version: m.tick}
	m.stats.Resources++
	m.emit(OpResource, NoEntity, key)
}

// RemoveResource deletes a resource. Its version drops back to zero.
func (m *Memory) RemoveResource(key string) {
	if _, ok := m.resources[key]; !ok {
		return
	}
	m.tick++
	delete(m.resources, key)
	m.stats.Resources++
	m.emit(OpResource, NoEntity, key)
}

// Resource implements World.
func (m *Memory) Resource(key string) (any, bool) {
	v, ok := m.resources[key]
	return v.value, ok
}

// ResourceVersion implements World.
func (m *Memory) ResourceVersion(key string) uint64 {
	return m.resources[key].version
}

// SetParent implements World. The child is appended to the parent's
// children.
func (m *Memory) SetParent(child, parent EntityID) error {
	ce, ok := m.entities[child]
	if !ok {
		return fmt.Errorf("set parent of %s: %w", child, ErrNoEntity)
	}
	pe, ok := m.entities[parent]
	if !ok {
		return fmt.Errorf("set parent %s: %w", parent, ErrNoEntity)
	}
	m.tick++
	m.detach(child, ce)
	ce.parent = parent
	pe.children = append(pe.children, child)
	m.stats.Reparented++
	m.emit(OpReparent, parent, "")
	return nil
}

// ReparentChildren implements World.
func (m *Memory) ReparentChildren(parent EntityID, children []EntityID) error {
	pe, ok := m.entities[parent]
	if !ok {
		return fmt.Errorf("reparent children of %s: %w", parent, ErrNoEntity)
	}
	for _, c := range children {
		if _, ok := m.entities[c]; !ok {
			return fmt.Errorf("reparent %s under %s: %w", c, parent, ErrNoEntity)
		}
	}
	m.tick++
	for _, c := range pe.children {
		if ce, ok := m.entities[c]; ok && ce.parent == parent {
			ce.parent = NoEntity
		}
	}
	pe.children = pe.children[:0]
	for _, c := range children {
		ce := m.entities[c]
		m.detach(c, ce)
		ce.parent = parent
		pe.children = append(pe.children, c)
	}
	m.stats.Reparented++
	m.emit(OpReparent, parent, "")
	return nil
}

func (m *Memory) detach(id EntityID, e *entity) {
	if e.parent == NoEntity {
		return
	}
	if p, ok := m.entities[e.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c EntityID) bool { return c == id })
	}
	e.parent = NoEntity
}

// Parent implements World.
func (m *Memory) Parent(id EntityID) (EntityID, bool) {
	e, ok := m.entities[id]
	if !ok || e.parent == NoEntity {
		return NoEntity, false
	}
	return e.parent, true
}

// Children implements World. The returned slice is a copy.
func (m *Memory) Children(id EntityID) []EntityID {
	e, ok := m.entities[id]
	if !ok {
		return nil
	}
	return slices.Clone(e.children)
}
