package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/view"
)

// Recorder persists pass reports. Implemented by journal.Journal.
type Recorder interface {
	RecordPass(ctx context.Context, r PassReport) error
}

// MountID identifies a root registered with Mount.
type MountID int

type mount struct {
	id     MountID
	tmpl   view.Template
	attach host.EntityID
	node   view.NodeID // zero until built
}

// Driver runs reconciliation passes over a view tree.
//
// Thread-safety model:
//   - Enqueue and Stop: safe from any goroutine
//   - Mount, Unmount, RunPass and Run: the update goroutine only, the one
//     that owns the world and the cell store
//
// Other goroutines change state by enqueueing a Frame.
type Driver struct {
	world  host.World
	cells  *cells.Store
	tree   *view.Tree
	clock  Sequencer
	tokens PassTokenGenerator
	rec    Recorder
	log    *slog.Logger
	queue  *frameQueue

	maxPasses int

	nextMount MountID
	mounts    []*mount
	unmounted []Event
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) { d.log = l }
}

// WithPassTokens sets the pass token generator. Default: UUIDv7Generator.
func WithPassTokens(g PassTokenGenerator) DriverOption {
	return func(d *Driver) { d.tokens = g }
}

// WithRecorder journals every non-idle pass.
func WithRecorder(r Recorder) DriverOption {
	return func(d *Driver) { d.rec = r }
}

// WithClock sets the pass sequencer, e.g. NewClockAt to resume numbering
// from a journal.
func WithClock(c Sequencer) DriverOption {
	return func(d *Driver) { d.clock = c }
}

// NewDriver creates a driver over w and cs.
func NewDriver(w host.World, cs *cells.Store, opts ...DriverOption) *Driver {
	d := &Driver{
		world:  w,
		cells:  cs,
		tree:   view.NewTree(w, cs),
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		log:    slog.Default(),
		queue:  newFrameQueue(),

		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tree exposes the view tree for inspection.
func (d *Driver) Tree() *view.Tree { return d.tree }

// Mount registers a root template whose output attaches under attach
// (host.NoEntity leaves it unparented). The root is built by the next pass.
// Roots mounted on the same entity share its child list in mount order.
func (d *Driver) Mount(tmpl view.Template, attach host.EntityID) MountID {
	d.nextMount++
	d.mounts = append(d.mounts, &mount{id: d.nextMount, tmpl: tmpl, attach: attach})
	return d.nextMount
}

// Unmount razes a root immediately. Unmounting an unknown id is a no-op.
func (d *Driver) Unmount(id MountID) {
	for i, m := range d.mounts {
		if m.id != id {
			continue
		}
		d.mounts = append(d.mounts[:i], d.mounts[i+1:]...)
		if m.node == 0 {
			return
		}
		kind, _ := d.tree.Kind(m.node)
		if err := d.tree.Raze(m.node); err != nil {
			d.log.Warn("unmount failed", "mount", id, "node", m.node, "error", err)
			return
		}
		d.unmounted = append(d.unmounted, Event{Kind: EventUnmount, Node: m.node, NodeKind: kind})
		d.log.Debug("unmounted", "mount", id, "node", m.node)
		return
	}
}

// Root returns the root node of a built mount.
func (d *Driver) Root(id MountID) (view.NodeID, bool) {
	for _, m := range d.mounts {
		if m.id == id && m.node != 0 {
			return m.node, true
		}
	}
	return 0, false
}

// RunPass runs one reconciliation pass: it builds pending mounts, then
// re-renders the template nodes that were dirty when the pass started,
// parents first. Node failures are reported, not returned; the error is
// non-nil only when ctx is done or the recorder fails.
func (d *Driver) RunPass(ctx context.Context) (PassReport, error) {
	if err := ctx.Err(); err != nil {
		return PassReport{}, err
	}

	r := PassReport{Token: d.tokens.Generate(), Seq: d.clock.Next()}
	log := d.log.With("pass", r.Token, "seq", r.Seq)
	hostBefore := d.hostStats()
	treeBefore := d.tree.Stats()
	r.CellsChanged = len(d.cells.DrainChanged())

	d.tree.BeginPass()
	dirty := d.tree.Dirty()
	r.Dirty = len(dirty)
	r.Events = append(r.Events, d.unmounted...)
	d.unmounted = nil

	for _, m := range d.mounts {
		if m.node != 0 {
			continue
		}
		m.node = d.tree.Construct(view.Use(m.tmpl), m.attach)
		r.Mounted++
		r.Events = append(r.Events, Event{Kind: EventMount, Node: m.node, NodeKind: view.KindTemplate, Detail: m.attach.String()})
		log.Debug("mounted", "mount", m.id, "node", m.node, "attach", m.attach)
	}

	for _, id := range dirty {
		rendered := d.tree.Stats().Rendered
		changed, err := d.tree.Patch(id)
		switch {
		case errors.Is(err, view.ErrUnknownNode):
			// Razed by an ancestor earlier in this pass.
			r.Skipped++
			continue
		case err != nil:
			return r, fmt.Errorf("patch %s: %w", id, err)
		}
		if d.tree.Stats().Rendered == rendered {
			r.Skipped++
			continue
		}
		r.Patched++
		r.Events = append(r.Events, Event{Kind: EventPatch, Node: id, NodeKind: view.KindTemplate, Changed: changed})
		log.Debug("patched", "node", id, "changed", changed)
	}

	for _, ne := range d.tree.DrainErrors() {
		pe := NewPassError(r.Token, ne)
		r.Errors = append(r.Errors, pe)
		r.Events = append(r.Events, Event{Kind: EventError, Node: ne.Node, NodeKind: ne.Kind, Detail: string(pe.Code) + ": " + pe.Message})
		// Log and continue: the failure is isolated to the node's subtree.
		log.Error("node failed", "node", ne.Node, "kind", ne.Kind, "code", pe.Code, "error", ne.Err)
	}

	treeAfter := d.tree.Stats()
	r.Rendered = treeAfter.Rendered - treeBefore.Rendered
	r.Built = treeAfter.Built - treeBefore.Built
	r.Razed = treeAfter.Razed - treeBefore.Razed
	r.Host = d.hostStats().Sub(hostBefore)

	if r.Idle() {
		return r, nil
	}
	log.Info("pass complete",
		"mounted", r.Mounted,
		"dirty", r.Dirty,
		"patched", r.Patched,
		"rendered", r.Rendered,
		"errors", len(r.Errors),
		"host_mutations", r.Host.Structural(),
	)
	if d.rec != nil {
		if err := d.rec.RecordPass(ctx, r); err != nil {
			return r, fmt.Errorf("record pass %s: %w", r.Token, err)
		}
	}
	return r, nil
}

func (d *Driver) hostStats() host.Stats {
	if sr, ok := d.world.(host.StatsReporter); ok {
		return sr.Stats()
	}
	return host.Stats{}
}

// Enqueue submits a frame to the Run loop. Safe from any goroutine. It
// returns false after Stop.
func (d *Driver) Enqueue(f Frame) bool {
	return d.queue.Enqueue(f)
}

// QueueLen returns the number of frames waiting.
func (d *Driver) QueueLen() int {
	return d.queue.Len()
}

// Run is the update loop. Each dequeued frame is applied and followed by
// one pass. Run first settles any pending mounts and blocks until ctx is
// done or Stop is called and the queue drained.
//
// A frame that fails is logged and its pass still runs: the frame may have
// applied part of its updates, and skipping the pass would leave the view
// behind the host store.
func (d *Driver) Run(ctx context.Context) error {
	d.log.Info("driver starting")
	if _, err := d.RunPass(ctx); err != nil {
		return err
	}

	for {
		if f, ok := d.queue.TryDequeue(); ok {
			if f.Apply != nil {
				if err := f.Apply(); err != nil {
					d.log.Error("frame failed", "frame", f.Label, "error", err)
				}
			}
			if _, err := d.RunPass(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.log.Error("pass failed", "frame", f.Label, "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			d.log.Info("driver stopping: context cancelled")
			d.queue.Close()
			return ctx.Err()
		case <-d.queue.Wait():
			// A coalesced signal may be left over from a frame already
			// dequeued; only a closed, empty queue ends the loop.
			if d.queue.Drained() {
				d.log.Info("driver stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the frame queue. Run returns once queued frames are done.
func (d *Driver) Stop() {
	d.queue.Close()
}
