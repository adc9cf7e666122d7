package optics

import (
	"errors"
	"fmt"
)

// Build-time rejection reasons. Every one of these is recoverable: the
// caller keeps its previous system and surfaces the message.
var (
	// ErrEmptyBundle indicates an entrance bundle with no heights and no angles.
	ErrEmptyBundle = errors.New("optics: entrance bundle is empty")

	// ErrBadOrder indicates element positions that do not strictly increase,
	// or a drift overlapping the element after it.
	ErrBadOrder = errors.New("optics: element positions must be strictly increasing")

	// ErrZeroFocal indicates a thin lens with focal length zero.
	ErrZeroFocal = errors.New("optics: lens focal length must be nonzero")

	// ErrBadRadius indicates a non-positive aperture radius or a negative lens bore.
	ErrBadRadius = errors.New("optics: radius must be positive")

	// ErrBadLength indicates a non-positive drift length.
	ErrBadLength = errors.New("optics: drift length must be positive")

	// ErrBadScreen indicates a screen placed before the last element exit.
	ErrBadScreen = errors.New("optics: screen must lie beyond the last element")

	// ErrNotFinite indicates a NaN or Inf parameter value.
	ErrNotFinite = errors.New("optics: parameter must be finite")
)

// ConfigurationError reports which element and field made a system
// unbuildable. Index is -1 for system-level problems (bundle, screen).
type ConfigurationError struct {
	Index int
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%v (element %d, field %s)", e.Err, e.Index, e.Field)
	}
	return fmt.Sprintf("%v (field %s)", e.Err, e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(index int, field string, err error) error {
	return &ConfigurationError{Index: index, Field: field, Err: err}
}
