package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds. Every error returned by the position manager matches exactly
// one of them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreFailure = errors.New("store failure")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrEpisodeNotFound = fmt.Errorf("episode %w", ErrNotFound)
	ErrPartNotFound    = fmt.Errorf("part %w", ErrNotFound)

	// ErrPositionOverflow means a shift would push a part past the int64 range.
	ErrPositionOverflow = fmt.Errorf("%w: position out of range", ErrInvalidInput)
)

// OperationError names the operation and the id it failed for.
type OperationError struct {
	Op  string
	ID  uuid.UUID
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
