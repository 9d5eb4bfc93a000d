package reconstruction

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when an ingestion has no usable slices left
var ErrEmptyInput = errors.New("no usable slices")

// errNoRecord is the decode error for a decoder that returned neither a
// record nor an error
var errNoRecord = errors.New("decoder returned no slice")

// DecodeError describes a single source that could not be decoded.
// During batch ingestion it is logged and skipped.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError is returned when a slice does not match the
// in-plane size of the first slice of the batch
type DimensionMismatchError struct {
	Source             string
	WantCols, WantRows int
	GotCols, GotRows   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("slice %s is %dx%d, expected %dx%d",
		e.Source, e.GotCols, e.GotRows, e.WantCols, e.WantRows)
}
