package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAssumption is wrapped by every assumption validation failure
	ErrInvalidAssumption = errors.New("invalid assumption")

	// ErrNotFound is returned by repositories when no record matches
	ErrNotFound = errors.New("not found")

	// ErrYearOutOfRange is returned when a year lookup falls outside the projected table
	ErrYearOutOfRange = errors.New("year out of range")
)

// invalidAssumption builds an error wrapping ErrInvalidAssumption
func invalidAssumption(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidAssumption, fmt.Sprintf(format, args...))
}
