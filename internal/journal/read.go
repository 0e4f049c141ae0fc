package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/weft/internal/host"
)

// Pass is one journaled pass.
type Pass struct {
	Token        string
	Seq          int64
	Mounted      int
	Dirty        int
	Patched      int
	Skipped      int
	Rendered     int
	Built        int
	Razed        int
	CellsChanged int
	Host         host.Stats
	Errors       int
}

// Event is one journaled node event.
type Event struct {
	PassToken string
	Seq       int64
	Kind      string
	Node      uint64
	NodeKind  string
	Changed   bool
	Detail    string
}

// NodeError is one journaled node failure.
type NodeError struct {
	PassToken string
	Node      uint64
	NodeKind  string
	Code      string
	Message   string
}

const passColumns = `token, seq, mounted, dirty, patched, skipped, rendered, built, razed, cells_changed,
	host_spawned, host_despawned, host_inserted, host_removed, host_reparented, error_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanPass(s scanner) (Pass, error) {
	var p Pass
	err := s.Scan(&p.Token, &p.Seq, &p.Mounted, &p.Dirty, &p.Patched, &p.Skipped, &p.Rendered,
		&p.Built, &p.Razed, &p.CellsChanged,
		&p.Host.Spawned, &p.Host.Despawned, &p.Host.Inserted, &p.Host.Removed, &p.Host.Reparented,
		&p.Errors)
	return p, err
}

// Passes returns every pass in seq order. The result is empty, not nil,
// for an empty journal.
func (j *Journal) Passes(ctx context.Context) ([]Pass, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+passColumns+` FROM passes ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	out := []Pass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return out, nil
}

// Pass returns one pass by token.
func (j *Journal) Pass(ctx context.Context, token string) (Pass, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+passColumns+` FROM passes WHERE token = ?`, token)
	p, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Pass{}, fmt.Errorf("pass %s: %w", token, ErrNotFound)
	}
	if err != nil {
		return Pass{}, fmt.Errorf("read pass %s: %w", token, err)
	}
	return p, nil
}

// LastSeq returns the highest recorded seq, or 0. A driver resuming on an
// existing journal starts its clock there.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM passes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq.Int64, nil
}

// Events returns the events of one pass in the order they happened.
func (j *Journal) Events(ctx context.Context, token string) ([]Event, error) {
	return j.queryEvents(ctx, `
		SELECT e.pass_token, p.seq, e.kind, e.node, e.node_kind, e.changed, e.detail
		FROM pass_events e JOIN passes p ON p.token = e.pass_token
		WHERE e.pass_token = ?
		ORDER BY e.idx ASC
	`, token)
}

// NodeHistory returns every event of one node across passes.
func (j *Journal) NodeHistory(ctx context.Context, node uint64) ([]Event, error) {
	return j.queryEvents(ctx, `
		SELECT e.pass_token, p.seq, e.kind, e.node, e.node_kind, e.changed, e.detail
		FROM pass_events e JOIN passes p ON p.token = e.pass_token
		WHERE e.node = ?
		ORDER BY p.seq ASC, e.idx ASC
	`, node)
}

func (j *Journal) queryEvents(ctx context.Context, query string, arg any) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.PassToken, &e.Seq, &e.Kind, &e.Node, &e.NodeKind, &e.Changed, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// Errors returns the node failures of one pass.
func (j *Journal) Errors(ctx context.Context, token string) ([]NodeError, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT pass_token, node, node_kind, code, message
		FROM node_errors
		WHERE pass_token = ?
		ORDER BY idx ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	defer rows.Close()

	out := []NodeError{}
	for rows.Next() {
		var e NodeError
		if err := rows.Scan(&e.PassToken, &e.Node, &e.NodeKind, &e.Code, &e.Message); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate errors: %w", err)
	}
	return out, nil
}
