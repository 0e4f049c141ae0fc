package journal

import (
	"context"
	"fmt"

	"github.com/roach88/weft/internal/engine"
)

var _ engine.Recorder = (*Journal)(nil)

// RecordPass writes a pass, its events and its errors in one transaction.
// A pass whose token was already recorded is ignored.
func (j *Journal) RecordPass(ctx context.Context, r engine.PassReport) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record pass: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes
		(token, seq, mounted, dirty, patched, skipped, rendered, built, razed, cells_changed,
		 host_spawned, host_despawned, host_inserted, host_removed, host_reparented, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		r.Token, r.Seq, r.Mounted, r.Dirty, r.Patched, r.Skipped, r.Rendered, r.Built, r.Razed, r.CellsChanged,
		r.Host.Spawned, r.Host.Despawned, r.Host.Inserted, r.Host.Removed, r.Host.Reparented, len(r.Errors),
	)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", r.Token, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("record pass %s: %w", r.Token, err)
	} else if n == 0 {
		return nil
	}

	for i, ev := range r.Events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pass_events (pass_token, idx, kind, node, node_kind, changed, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.Token, i, string(ev.Kind), uint64(ev.Node), ev.NodeKind.String(), ev.Changed, ev.Detail); err != nil {
			return fmt.Errorf("record event %d of pass %s: %w", i, r.Token, err)
		}
	}
	for i, pe := range r.Errors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO node_errors (pass_token, idx, node, node_kind, code, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.Token, i, uint64(pe.Node), pe.NodeKind.String(), string(pe.Code), pe.Message); err != nil {
			return fmt.Errorf("record error %d of pass %s: %w", i, r.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record pass %s: commit: %w", r.Token, err)
	}
	return nil
}
