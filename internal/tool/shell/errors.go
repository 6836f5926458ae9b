package shell

import (
	"errors"
	"fmt"
)

var (
	ErrCommandRequired   = errors.New("command cannot be empty")
	ErrNegativeTimeout   = errors.New("timeout_seconds cannot be negative")
	ErrNotDirectory      = errors.New("working_dir is not a directory")
	ErrWorkingDirMissing = errors.New("working_dir does not exist")
)

// EnvFileReadError is returned when reading an env file fails.
type EnvFileReadError struct {
	Path  string
	Cause error
}

func (e *EnvFileReadError) Error() string {
	return fmt.Sprintf("failed to read env file %s: %v", e.Path, e.Cause)
}

func (e *EnvFileReadError) Unwrap() error { return e.Cause }

// EnvFileParseError is returned when an env file has an invalid format.
type EnvFileParseError struct {
	Path    string
	Line    int
	Content string
}

func (e *EnvFileParseError) Error() string {
	return fmt.Sprintf("invalid line %d in env file %s: %s", e.Line, e.Path, e.Content)
}
