package reactive

import (
	"errors"

	"github.com/roach88/weft/internal/cells"
)

var (
	// ErrStaleHandle marks a read through a released cell handle or a
	// despawned entity.
	ErrStaleHandle = cells.ErrStaleHandle

	// ErrTypeMismatch marks a read that asked for the wrong Go type.
	ErrTypeMismatch = cells.ErrTypeMismatch

	// ErrMissingSource marks a read of a resource or component the host
	// store does not have. Templates are expected to handle it, typically
	// by rendering a "not loaded" state.
	ErrMissingSource = errors.New("missing dependency source")
)

// IsMissing reports whether err is (or wraps) ErrMissingSource.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingSource)
}
