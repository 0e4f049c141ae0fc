// Package engine drives reconciliation passes.
//
// ARCHITECTURE:
//
// Single-writer update loop:
// The host world, the cell store and the view tree are only touched from
// one goroutine. Driver.Run owns that goroutine; other goroutines submit
// Frames with Enqueue. Callers that already run on the update goroutine
// (tests, the scenario harness) call RunPass directly.
//
// Pass flow:
//  1. Stamp the pass with a token (PassTokenGenerator) and a seq (Clock)
//  2. Compute the dirty set: template nodes whose recorded dependency
//     versions differ from the current ones
//  3. Build mounts registered since the last pass
//  4. Re-render dirty nodes parents first; a node already re-rendered by an
//     ancestor in this pass is skipped
//  5. Collect node failures as PassErrors, log them and continue
//  6. Hand the PassReport to the Recorder, if any
//
// Changes made while a pass runs (an effect writing a cell, say) are picked
// up by the next pass, never by the current one. Settle runs passes until
// one is idle, within the WithMaxPasses budget.
//
// The logical clock orders passes; wall-clock time is never recorded, so a
// scenario replayed with fixed tokens journals identically.
package engine
