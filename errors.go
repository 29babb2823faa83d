package vamana

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vamana/blobstore"
	core "github.com/hupe1980/vamana/internal/vamana"
	"github.com/hupe1980/vamana/persistence"
)

var (
	// ErrInvalidArgument is returned for malformed input.
	ErrInvalidArgument = core.ErrInvalidArgument
	// ErrCapacityExceeded is returned when the index has no free slot.
	ErrCapacityExceeded = core.ErrCapacityExceeded
	// ErrDuplicateID is returned when an ID is already bound.
	ErrDuplicateID = core.ErrDuplicateID
	// ErrNotFound is returned for unknown IDs and missing snapshots.
	ErrNotFound = core.ErrNotFound
	// ErrClosed is returned after Close.
	ErrClosed = core.ErrClosed
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
// It matches ErrInvalidArgument with errors.Is.
type ErrDimensionMismatch = core.ErrDimensionMismatch

// ErrInvalidParameter names a configuration or call parameter that failed
// validation. It matches ErrInvalidArgument with errors.Is.
type ErrInvalidParameter = core.ErrInvalidParameter

func invalidParam(name string, value any, reason string) error {
	return &ErrInvalidParameter{Name: name, Value: value, Reason: reason}
}

// translateError maps storage errors onto the package sentinels. The
// original error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidArgument):
		return err
	case errors.Is(err, persistence.ErrNoSnapshot), errors.Is(err, blobstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDTypeMismatch):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}
