package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/engine"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/reactive"
	"github.com/roach88/weft/internal/testutil"
	"github.com/roach88/weft/internal/view"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleReport() engine.PassReport {
	return engine.PassReport{
		Token:    "pass-1",
		Seq:      1,
		Mounted:  1,
		Rendered: 1,
		Built:    3,
		Host:     host.Stats{Spawned: 2, Reparented: 2},
		Events: []engine.Event{
			{Kind: engine.EventMount, Node: 1, NodeKind: view.KindTemplate, Detail: "e1"},
			{Kind: engine.EventError, Node: 4, NodeKind: view.KindList, Detail: "RECONCILIATION: duplicate key"},
		},
		Errors: []*engine.PassError{
			{Code: engine.ErrCodeReconciliation, Message: "duplicate key", Node: 4, NodeKind: view.KindList},
		},
	}
}

func TestOpen_Pragmas(t *testing.T) {
	j := openTestJournal(t)

	mode, err := j.pragma("journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	fk, err := j.pragma("foreign_keys")
	require.NoError(t, err)
	assert.Equal(t, "1", fk)

	v, err := j.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordPass(context.Background(), sampleReport()))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	seq, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestRecordPass_RoundTrip(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	require.NoError(t, j.RecordPass(ctx, sampleReport()))

	p, err := j.Pass(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, Pass{
		Token: "pass-1", Seq: 1, Mounted: 1, Rendered: 1, Built: 3,
		Host:   host.Stats{Spawned: 2, Reparented: 2},
		Errors: 1,
	}, p)

	events, err := j.Events(ctx, "pass-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, Event{PassToken: "pass-1", Seq: 1, Kind: "mount", Node: 1, NodeKind: "template", Detail: "e1"}, events[0])
	assert.Equal(t, "error", events[1].Kind)

	errs, err := j.Errors(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, []NodeError{{PassToken: "pass-1", Node: 4, NodeKind: "list", Code: "RECONCILIATION", Message: "duplicate key"}}, errs)
}

func TestRecordPass_Idempotent(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	require.NoError(t, j.RecordPass(ctx, sampleReport()))
	require.NoError(t, j.RecordPass(ctx, sampleReport()))

	passes, err := j.Passes(ctx)
	require.NoError(t, err)
	assert.Len(t, passes, 1)
	events, err := j.Events(ctx, "pass-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRead_Empty(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	passes, err := j.Passes(ctx)
	require.NoError(t, err)
	assert.NotNil(t, passes)
	assert.Empty(t, passes)

	_, err = j.Pass(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	seq, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestJournal_RecordsDriverPasses(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	world := host.NewMemory()
	root := world.Spawn(host.Name("root"))
	world.SetResource("n", 1)
	d := engine.NewDriver(world, cells.NewStore(),
		engine.WithLogger(testutil.DiscardLogger()),
		engine.WithPassTokens(testutil.NewSeqTokens("run")),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithRecorder(j),
	)
	d.Mount(view.Func(nil, func(cx *reactive.Cx) (view.View, error) {
		n, err := reactive.Resource[int](cx, "n")
		return view.Textf("n=%d", n), err
	}).Template(), root)

	_, err := d.RunPass(ctx)
	require.NoError(t, err)
	_, err = d.RunPass(ctx) // idle, not journaled
	require.NoError(t, err)
	world.SetResource("n", 2)
	_, err = d.RunPass(ctx)
	require.NoError(t, err)

	passes, err := j.Passes(ctx)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, "run-1", passes[0].Token)
	assert.Equal(t, "run-3", passes[1].Token)
	assert.Equal(t, int64(3), passes[1].Seq)
	assert.Equal(t, 1, passes[1].Patched)
	assert.Equal(t, 1, passes[1].Host.Inserted)

	root1, ok := d.Root(1)
	require.True(t, ok)
	history, err := j.NodeHistory(ctx, uint64(root1))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "mount", history[0].Kind)
	assert.Equal(t, "patch", history[1].Kind)
	assert.False(t, history[1].Changed)
}
