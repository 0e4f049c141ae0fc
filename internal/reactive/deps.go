package reactive

import (
	"fmt"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
)

// SourceKind distinguishes the three things a view can depend on.
type SourceKind uint8

const (
	SourceResource SourceKind = iota + 1
	SourceComponent
	SourceCell
)

func (k SourceKind) String() string {
	switch k {
	case SourceResource:
		return "resource"
	case SourceComponent:
		return "component"
	case SourceCell:
		return "cell"
	default:
		return "unknown"
	}
}

// Source identifies one dependency source. It is comparable and used as a
// map key.
type Source struct {
	Kind   SourceKind
	Key    string // resource key or component kind
	Entity host.EntityID
	Cell   cells.ID
}

// ResourceSource returns the source for a host resource.
func ResourceSource(key string) Source {
	return Source{Kind: SourceResource, Key: key}
}

// ComponentSource returns the source for a component slot on an entity.
func ComponentSource(id host.EntityID, kind string) Source {
	return Source{Kind: SourceComponent, Key: kind, Entity: id}
}

// CellSource returns the source for a mutable cell.
func CellSource(id cells.ID) Source {
	return Source{Kind: SourceCell, Cell: id}
}

func (s Source) String() string {
	switch s.Kind {
	case SourceResource:
		return "resource:" + s.Key
	case SourceComponent:
		return fmt.Sprintf("component:%s/%s", s.Entity, s.Key)
	case SourceCell:
		return "cell:" + s.Cell.String()
	default:
		return "unknown"
	}
}

// Dependency is a source together with the version observed when it was
// read.
type Dependency struct {
	Source  Source
	Version uint64
}

// Versions reports the current version of a source. Absent sources report 0.
type Versions interface {
	Version(src Source) uint64
}

// Oracle answers Versions from a host world and a cell store.
type Oracle struct {
	World host.World
	Cells *cells.Store
}

// Version implements Versions.
func (o Oracle) Version(src Source) uint64 {
	switch src.Kind {
	case SourceResource:
		return o.World.ResourceVersion(src.Key)
	case SourceComponent:
		return o.World.ComponentVersion(src.Entity, src.Key)
	case SourceCell:
		v, _ := o.Cells.Version(src.Cell)
		return v
	}
	return 0
}

// Set is an ordered dependency set. The first read of a source wins: a
// later read of the same source in the same invocation does not overwrite
// the recorded version.
type Set struct {
	order    []Source
	versions map[Source]uint64
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{versions: make(map[Source]uint64)}
}

// Record adds src at version unless it is already present.
func (d *Set) Record(src Source, version uint64) {
	if _, ok := d.versions[src]; ok {
		return
	}
	d.versions[src] = version
	d.order = append(d.order, src)
}

// Len returns the number of distinct sources.
func (d *Set) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}

// Version returns the recorded version for src.
func (d *Set) Version(src Source) (uint64, bool) {
	if d == nil {
		return 0, false
	}
	v, ok := d.versions[src]
	return v, ok
}

// Has reports whether src was read.
func (d *Set) Has(src Source) bool {
	_, ok := d.Version(src)
	return ok
}

// Sources returns the sources in first-read order.
func (d *Set) Sources() []Source {
	if d == nil {
		return nil
	}
	out := make([]Source, len(d.order))
	copy(out, d.order)
	return out
}

// Dependencies returns the (source, version) pairs in first-read order.
func (d *Set) Dependencies() []Dependency {
	if d == nil {
		return nil
	}
	out := make([]Dependency, len(d.order))
	for i, src := range d.order {
		out[i] = Dependency{Source: src, Version: d.versions[src]}
	}
	return out
}

// Changed returns the sources whose current version differs from the
// recorded one.
func (d *Set) Changed(v Versions) []Source {
	if d == nil {
		return nil
	}
	var out []Source
	for _, src := range d.order {
		if v.Version(src) != d.versions[src] {
			out = append(out, src)
		}
	}
	return out
}

// Stale reports whether any recorded source changed.
func (d *Set) Stale(v Versions) bool {
	if d == nil {
		return false
	}
	for _, src := range d.order {
		if v.Version(src) != d.versions[src] {
			return true
		}
	}
	return false
}
