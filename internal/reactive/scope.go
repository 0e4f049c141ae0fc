package reactive

import (
	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
)

type slotKind uint8

const (
	slotCell slotKind = iota + 1
	slotMemo
	slotEffect
	slotEntity
)

type slot struct {
	kind    slotKind
	cell    cells.ID
	entity  host.EntityID
	key     any
	value   any
	set     bool // value holds a memoized result, possibly nil
	cleanup func()
}

// Scope holds the hook state of one view node across passes: its scoped
// cells, memoized values, effects and pre-allocated entities. It lives
// exactly as long as the node.
type Scope struct {
	owner    cells.Owner
	slots    []*slot
	disposed bool
}

// NewScope creates the hook scope for owner. Cells created through it are
// allocated with that owner.
func NewScope(owner cells.Owner) *Scope {
	return &Scope{owner: owner}
}

// Owner returns the cell owner of the scope.
func (s *Scope) Owner() cells.Owner { return s.owner }

// Len returns the number of hook slots.
func (s *Scope) Len() int { return len(s.slots) }

// Disposed reports whether Dispose ran.
func (s *Scope) Disposed() bool { return s.disposed }

// Dispose runs cleanups in reverse creation order, despawns pre-allocated
// entities and releases every cell scoped to the owner. It is idempotent.
func (s *Scope) Dispose(w host.World, cs *cells.Store) {
	if s.disposed {
		return
	}
	s.disposed = true
	for i := len(s.slots) - 1; i >= 0; i-- {
		disposeSlot(w, cs, s.slots[i])
	}
	s.slots = nil
	cs.ReleaseOwner(s.owner)
}

func disposeSlot(w host.World, cs *cells.Store, sl *slot) {
	switch sl.kind {
	case slotCell:
		if cs.Alive(sl.cell) {
			_ = cs.Release(sl.cell)
		}
	case slotEntity:
		w.Despawn(sl.entity)
	}
	if sl.cleanup != nil {
		sl.cleanup()
		sl.cleanup = nil
	}
}

// at returns the slot at position i, creating or replacing it when the kind
// at that position differs (the template changed its hook order). The bool
// result is true when an existing slot of the right kind was reused.
func (s *Scope) at(w host.World, cs *cells.Store, i int, kind slotKind) (*slot, bool) {
	if i < len(s.slots) {
		if sl := s.slots[i]; sl.kind == kind {
			return sl, true
		}
		disposeSlot(w, cs, s.slots[i])
		s.slots[i] = &slot{kind: kind}
		return s.slots[i], false
	}
	sl := &slot{kind: kind}
	s.slots = append(s.slots, sl)
	return sl, false
}
