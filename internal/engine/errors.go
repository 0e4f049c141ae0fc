package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/weft/internal/reactive"
	"github.com/roach88/weft/internal/view"
)

// PassErrorCode categorizes a failure isolated to one view node.
type PassErrorCode string

const (
	// ErrCodeStaleHandle: a template read through a released cell or a
	// despawned entity. The node was rebuilt with a fresh scope.
	ErrCodeStaleHandle PassErrorCode = "STALE_HANDLE"

	// ErrCodeTypeMismatch: a source was read as the wrong Go type. The
	// node's output was razed.
	ErrCodeTypeMismatch PassErrorCode = "TYPE_MISMATCH"

	// ErrCodeMissingSource: a template returned the missing-source error
	// instead of handling it. The node kept its previous output.
	ErrCodeMissingSource PassErrorCode = "MISSING_SOURCE"

	// ErrCodeReconciliation: a list could not be diffed and kept its
	// previous state.
	ErrCodeReconciliation PassErrorCode = "RECONCILIATION"

	// ErrCodeTemplate: any other template error.
	ErrCodeTemplate PassErrorCode = "TEMPLATE"
)

// PassError is one node failure observed during a pass. Failures never
// abort the pass; they are logged, reported and journaled.
type PassError struct {
	Code      PassErrorCode
	Message   string
	PassToken string
	Node      view.NodeID
	NodeKind  view.Kind
	Err       error
}

func (e *PassError) Error() string {
	if e.PassToken != "" {
		return fmt.Sprintf("%s: %s (pass=%s, node=%s)", e.Code, e.Message, e.PassToken, e.Node)
	}
	return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
}

func (e *PassError) Unwrap() error { return e.Err }

// Classify maps an error to its code.
func Classify(err error) PassErrorCode {
	switch {
	case errors.Is(err, reactive.ErrStaleHandle):
		return ErrCodeStaleHandle
	case errors.Is(err, reactive.ErrTypeMismatch):
		return ErrCodeTypeMismatch
	case errors.Is(err, reactive.ErrMissingSource):
		return ErrCodeMissingSource
	case errors.Is(err, view.ErrReconciliation):
		return ErrCodeReconciliation
	default:
		return ErrCodeTemplate
	}
}

// NewPassError wraps a node failure.
func NewPassError(token string, ne view.NodeError) *PassError {
	return &PassError{
		Code:      Classify(ne.Err),
		Message:   ne.Err.Error(),
		PassToken: token,
		Node:      ne.Node,
		NodeKind:  ne.Kind,
		Err:       ne.Err,
	}
}

func hasCode(err error, code PassErrorCode) bool {
	var pe *PassError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsStaleHandle reports whether err is a PassError for a stale handle.
func IsStaleHandle(err error) bool { return hasCode(err, ErrCodeStaleHandle) }

// IsTypeMismatch reports whether err is a PassError for a type mismatch.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsReconciliation reports whether err is a PassError from a list diff.
func IsReconciliation(err error) bool { return hasCode(err, ErrCodeReconciliation) }
