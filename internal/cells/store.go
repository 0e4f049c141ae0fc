// Package cells implements the mutable cell store: a process-wide table of
// versioned local-state values addressed by opaque handles.
//
// Cells are either scoped to an owner (a view node) and released when the
// owner is razed, or unscoped and released only by an explicit Release.
// Forgetting to release an unscoped cell leaks it; it never crashes.
//
// The store is not synchronized. All reads and writes happen on the update
// goroutine that drives reconciliation passes.
package cells

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrStaleHandle is returned when a handle is used after its cell was
	// released.
	ErrStaleHandle = errors.New("stale handle")

	// ErrNotFound is the store-level form of ErrStaleHandle.
	ErrNotFound = fmt.Errorf("cell not found: %w", ErrStaleHandle)

	// ErrTypeMismatch is returned when a cell is read as a type other than
	// the one it was allocated with.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ID is the untyped address of a cell. The zero ID is never allocated.
type ID uint64

func (id ID) String() string { return fmt.Sprintf("c%d", uint64(id)) }

// Owner identifies the scope a cell belongs to. Unscoped cells have owner 0.
type Owner uint64

// Unscoped is the owner of cells that live until explicitly released.
const Unscoped Owner = 0

// Handle is a typed, copyable reference to a cell holding a T.
type Handle[T any] struct {
	id ID
}

// HandleOf reinterprets an untyped id as a Handle[T]. Reads through the
// result fail with ErrTypeMismatch if the cell holds another type.
func HandleOf[T any](id ID) Handle[T] {
	return Handle[T]{id: id}
}

// ID returns the untyped cell address.
func (h Handle[T]) ID() ID { return h.id }

// IsZero reports whether h was never assigned.
func (h Handle[T]) IsZero() bool { return h.id == 0 }

type entry struct {
	value   any
	version uint64
	owner   Owner
}

// Store is the cell table.
type Store struct {
	next    ID
	tick    uint64
	entries map[ID]*entry
	owned   map[Owner][]ID
	changed map[ID]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[ID]*entry),
		owned:   make(map[Owner][]ID),
		changed: make(map[ID]struct{}),
	}
}

func (s *Store) allocate(owner Owner, v any) ID {
	s.next++
	s.tick++
	id := s.next
	s.entries[id] = &entry{value: v, version: s.tick, owner: owner}
	if owner != Unscoped {
		s.owned[owner] = append(s.owned[owner], id)
	}
	return id
}

// Allocate creates an unscoped cell.
func Allocate[T any](s *Store, initial T) Handle[T] {
	return Handle[T]{id: s.allocate(Unscoped, initial)}
}

// AllocateScoped creates a cell released by ReleaseOwner(owner).
func AllocateScoped[T any](s *Store, owner Owner, initial T) Handle[T] {
	return Handle[T]{id: s.allocate(owner, initial)}
}

func lookup[T any](s *Store, id ID) (*entry, T, error) {
	var zero T
	e, ok := s.entries[id]
	if !ok {
		return nil, zero, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	v, ok := e.value.(T)
	if !ok && e.value != nil {
		return nil, zero, fmt.Errorf("%s holds %T, read as %T: %w", id, e.value, zero, ErrTypeMismatch)
	}
	return e, v, nil
}

// Get returns the current value of the cell.
func Get[T any](s *Store, h Handle[T]) (T, error) {
	_, v, err := lookup[T](s, h.id)
	return v, err
}

// Set replaces the value and bumps the version.
func Set[T any](s *Store, h Handle[T], v T) error {
	e, _, err := lookup[T](s, h.id)
	if err != nil {
		return err
	}
	s.bump(h.id, e)
	e.value = v
	return nil
}

// Update applies fn to the current value with a single version bump.
func Update[T any](s *Store, h Handle[T], fn func(T) T) error {
	e, v, err := lookup[T](s, h.id)
	if err != nil {
		return err
	}
	s.bump(h.id, e)
	e.value = fn(v)
	return nil
}

func (s *Store) bump(id ID, e *entry) {
	s.tick++
	e.version = s.tick
	s.changed[id] = struct{}{}
}

// Release destroys the cell. Releasing an already released cell returns
// ErrNotFound.
func (s *Store) Release(id ID) error {
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("release %s: %w", id, ErrNotFound)
	}
	delete(s.entries, id)
	delete(s.changed, id)
	if e.owner != Unscoped {
		ids := slices.DeleteFunc(s.owned[e.owner], func(o ID) bool { return o == id })
		if len(ids) == 0 {
			delete(s.owned, e.owner)
		} else {
			s.owned[e.owner] = ids
		}
	}
	return nil
}

// ReleaseOwner destroys every cell scoped to owner and returns how many
// were released.
func (s *Store) ReleaseOwner(owner Owner) int {
	if owner == Unscoped {
		return 0
	}
	ids := s.owned[owner]
	for _, id := range ids {
		delete(s.entries, id)
		delete(s.changed, id)
	}
	delete(s.owned, owner)
	return len(ids)
}

// Version returns the cell's version, or (0, false) once released.
func (s *Store) Version(id ID) (uint64, bool) {
	e, ok := s.entries[id]
	if !ok {
		return 0, false
	}
	return e.version, true
}

// Alive reports whether the cell exists.
func (s *Store) Alive(id ID) bool {
	_, ok := s.entries[id]
	return ok
}

// Len returns the number of live cells.
func (s *Store) Len() int {
	return len(s.entries)
}

// Owned returns the number of live cells scoped to owner.
func (s *Store) Owned(owner Owner) int {
	return len(s.owned[owner])
}

// DrainChanged returns the ids of cells written since the previous drain, in
// ascending order, and clears the set.
func (s *Store) DrainChanged() []ID {
	if len(s.changed) == 0 {
		return nil
	}
	out := make([]ID, 0, len(s.changed))
	for id := range s.changed {
		out = append(out, id)
	}
	slices.Sort(out)
	clear(s.changed)
	return out
}
