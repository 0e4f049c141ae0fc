package engine

import (
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/view"
)

// EventKind names a journaled pass event.
type EventKind string

const (
	EventMount   EventKind = "mount"
	EventUnmount EventKind = "unmount"
	EventPatch   EventKind = "patch"
	EventError   EventKind = "error"
)

// Event is one thing that happened to a node during a pass.
type Event struct {
	Kind     EventKind
	Node     view.NodeID
	NodeKind view.Kind
	Changed  bool   // patch: the node's output span changed
	Detail   string // error message, or the mount's attach target
}

// PassReport summarizes one pass.
type PassReport struct {
	Token string
	Seq   int64

	Mounted  int // roots built
	Dirty    int // template nodes dirty at pass start
	Patched  int // dirty nodes re-rendered by the driver
	Skipped  int // dirty nodes already handled by an ancestor
	Rendered int // template invocations, including nested ones
	Built    int
	Razed    int

	CellsChanged int // cells written since the previous pass
	Host         host.Stats

	Events []Event
	Errors []*PassError
}

// Idle reports whether the pass had nothing to do.
func (r PassReport) Idle() bool {
	return r.Mounted == 0 && r.Dirty == 0 && len(r.Events) == 0
}
