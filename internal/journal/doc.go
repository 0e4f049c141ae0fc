// Package journal persists pass reports in SQLite.
//
// Every non-idle pass becomes one row in passes, with its node events in
// pass_events and its node failures in node_errors. Rows are keyed by the
// pass token and ordered by the pass seq from the driver's logical clock,
// never by wall-clock time, so a scenario replayed with fixed tokens
// produces an identical journal.
//
// Writes are idempotent: recording a pass whose token is already present
// is a no-op. Journal implements engine.Recorder.
package journal
