package engine

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxPasses bounds Settle unless WithMaxPasses says otherwise.
const DefaultMaxPasses = 100

// WithMaxPasses sets how many non-idle passes Settle may run.
func WithMaxPasses(n int) DriverOption {
	return func(d *Driver) { d.maxPasses = n }
}

// PassesExceededError is returned by Settle when the view is still dirty
// after the pass limit. The usual cause is a template or effect that
// writes a cell it also reads, so every pass leaves its node dirty again.
type PassesExceededError struct {
	Limit    int
	LastPass string
}

func (e *PassesExceededError) Error() string {
	return fmt.Sprintf("view did not settle within %d passes (last pass %s)", e.Limit, e.LastPass)
}

// IsPassesExceeded reports whether err is a PassesExceededError.
func IsPassesExceeded(err error) bool {
	var pe *PassesExceededError
	return errors.As(err, &pe)
}

// passQuota counts the passes of one Settle call.
type passQuota struct {
	limit   int
	current int
}

func (q *passQuota) spend() bool {
	q.current++
	return q.current <= q.limit
}

// Settle runs passes until one is idle and returns the reports of the
// passes that did work. Writes made during a pass only take effect in the
// next one, so a frame that starts a chain of cell writes needs several
// passes to reach a stable view.
func (d *Driver) Settle(ctx context.Context) ([]PassReport, error) {
	q := passQuota{limit: d.maxPasses}
	var reports []PassReport
	for q.spend() {
		r, err := d.RunPass(ctx)
		if err != nil {
			return reports, err
		}
		if r.Idle() {
			return reports, nil
		}
		reports = append(reports, r)
	}

	last := ""
	if len(reports) > 0 {
		last = reports[len(reports)-1].Token
	}
	d.log.Warn("view did not settle", "limit", q.limit, "last_pass", last)
	return reports, &PassesExceededError{Limit: q.limit, LastPass: last}
}
