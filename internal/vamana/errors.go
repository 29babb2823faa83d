package vamana

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCapacityExceeded is returned when no free slot is left.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrDuplicateID is returned when inserting an ID that is live or
	// tombstoned but not yet reclaimed.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNotFound is returned when an ID is not live.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("index closed")

	// errConsolidationConflict signals that a node changed while it was
	// being repaired. It is handled by requeueing and never returned.
	errConsolidationConflict = errors.New("consolidation conflict")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrInvalidArgument }

// ErrInvalidParameter names a parameter that failed validation.
type ErrInvalidParameter struct {
	Name   string
	Value  any
	Reason string
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *ErrInvalidParameter) Is(target error) bool { return target == ErrInvalidArgument }

func invalidParam(name string, value any, reason string) error {
	return &ErrInvalidParameter{Name: name, Value: value, Reason: reason}
}
