package todo

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyDescription   = errors.New("description cannot be empty")
	ErrMultipleInProgress = errors.New("only one todo may be in_progress")
)

// InvalidStatusError names the offending item.
type InvalidStatusError struct {
	Index  int
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("todos[%d]: invalid status %q", e.Index, e.Status)
}

func (e *InvalidStatusError) Unwrap() error { return ErrInvalidStatus }

// EmptyDescriptionError names the offending item.
type EmptyDescriptionError struct {
	Index int
}

func (e *EmptyDescriptionError) Error() string {
	return fmt.Sprintf("todos[%d]: description cannot be empty", e.Index)
}

func (e *EmptyDescriptionError) Unwrap() error { return ErrEmptyDescription }
