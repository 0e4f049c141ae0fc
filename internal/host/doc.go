// Package host defines the boundary between the reconciliation core and the
// entity-component store that owns the display nodes.
//
// The core never owns entities. It asks the store to spawn, despawn and
// re-parent them, to insert and remove components, and to report change
// versions for the resources and components a view read. Everything else
// about the store (component storage layout, change detection, systems) is
// the host's business.
//
// Memory is a small in-process World used by tests, the scenario harness and
// the weft CLI. It stamps every mutation with a monotonically increasing tick
// so that version comparisons are exact.
package host
