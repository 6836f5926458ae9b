package fs

import (
	"errors"
	"fmt"
)

var ErrInvalidOffset = errors.New("invalid offset")

// WriteError reports which step of an atomic write failed.
type WriteError struct {
	Path  string
	Step  string // "create temp", "write", "sync", "close", "rename" or "chmod"
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("atomic write of %s failed at %s: %v", e.Path, e.Step, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }
