package host

import (
	"errors"
	"fmt"
)

// EntityID identifies one display node in the host store.
// The zero value is never issued and means "no entity".
type EntityID uint64

// NoEntity is the zero EntityID.
const NoEntity EntityID = 0

func (id EntityID) String() string {
	if id == NoEntity {
		return "none"
	}
	return fmt.Sprintf("e%d", uint64(id))
}

// Component is a value attached to an entity. Kind names the component slot;
// an entity holds at most one component per kind.
type Component interface {
	Kind() string
}

// ErrNoEntity is returned when an operation targets an entity that was never
// spawned or has been despawned.
var ErrNoEntity = errors.New("no such entity")

// World is the consumed interface of the host entity-component store.
//
// Versions are zero for absent resources and components and strictly
// increase on every change otherwise, so a recorded version differs from the
// current one exactly when the source changed (or disappeared) since it was
// read.
type World interface {
	Spawn(components ...Component) EntityID
	Despawn(id EntityID)
	Exists(id EntityID) bool

	Insert(id EntityID, c Component) error
	Remove(id EntityID, kind string) error
	Component(id EntityID, kind string) (Component, bool)
	ComponentVersion(id EntityID, kind string) uint64

	Resource(key string) (any, bool)
	ResourceVersion(key string) uint64

	SetParent(child, parent EntityID) error
	// ReparentChildren makes children the exact ordered child list of parent.
	// Former children not in the list are detached.
	ReparentChildren(parent EntityID, children []EntityID) error
	Parent(id EntityID) (EntityID, bool)
	Children(id EntityID) []EntityID
}

// Name labels an entity. The harness uses it for element tags.
type Name string

// Kind implements Component.
func (Name) Kind() string { return "name" }

// Text is the string content of a text display node.
type Text string

// Kind implements Component.
func (Text) Kind() string { return "text" }

// Attr is a keyed string attribute. Each key occupies its own slot.
type Attr struct {
	Key   string
	Value string
}

// Kind implements Component.
func (a Attr) Kind() string { return "attr:" + a.Key }
