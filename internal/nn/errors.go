package nn

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure classes layers report. Call sites
// wrap them with layer and argument context; callers and tests match
// with errors.Is.
var (
	// ErrInvalidConfiguration marks layer configuration that can never
	// work: an unknown reducer, padding mode or activation name, a
	// malformed config block, or weights missing at call time.
	ErrInvalidConfiguration = errors.New("invalid layer configuration")

	// ErrDimension marks input geometry a layer cannot process, such as
	// a pooling window larger than the input it is applied to.
	ErrDimension = errors.New("dimension mismatch")
)

// DimensionError carries the offending geometry when a layer rejects an
// input. It unwraps to ErrDimension.
type DimensionError struct {
	Layer  string // layer instance name
	Detail string // what about the geometry was unusable
}

func (e *DimensionError) Error() string {
	return e.Layer + ": " + e.Detail
}

func (e *DimensionError) Unwrap() error {
	return ErrDimension
}

// dimErrorf builds a *DimensionError with a formatted detail message.
func dimErrorf(layer, format string, args ...any) error {
	return &DimensionError{Layer: layer, Detail: fmt.Sprintf(format, args...)}
}
