// Package directory implements the list_directory and find_file tools.
package directory

import (
	"errors"
	"fmt"
	"os"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/service/path"
)

var (
	ErrNotDirectory   = errors.New("path is not a directory")
	ErrPathMissing    = errors.New("path does not exist")
	ErrPatternMissing = errors.New("pattern is required")
	ErrInvalidOffset  = errors.New("offset cannot be negative")
	ErrInvalidLimit   = errors.New("limit cannot be negative")
	ErrInvalidDepth   = errors.New("max_depth must be -1 or greater")
)

// LimitExceededError is returned when a requested page size is above the configured maximum.
type LimitExceededError struct {
	Value int
	Max   int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit %d exceeds maximum %d", e.Value, e.Max)
}

type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
}

type locator interface {
	Root() string
	Locate(path string) (path.Location, error)
}

type ignorer interface {
	Match(rel string, isDir bool) bool
}

// Tools bundles the directory tools over shared dependencies.
type Tools struct {
	fs     fileSystem
	paths  locator
	ignore ignorer
	config *config.Config
}

// New creates the directory tools. A nil ignore disables gitignore filtering.
func New(fs fileSystem, paths locator, ignore ignorer, cfg *config.Config) *Tools {
	if fs == nil {
		panic("fs is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Tools{fs: fs, paths: paths, ignore: ignore, config: cfg}
}

// All returns every directory tool.
func (t *Tools) All() []tool.Tool {
	return []tool.Tool{t.ListDirectory(), t.FindFile()}
}

// scope is a resolved directory to walk.
type scope struct {
	loc  path.Location
	base string
	ig   ignorer
}

// resolveDir locates p and checks it is a directory. Ignore rules only apply
// inside the workspace, where entry paths are relative to its root.
func (t *Tools) resolveDir(p string) (scope, error) {
	if p == "" {
		p = "."
	}
	loc, err := t.paths.Locate(p)
	if err != nil {
		return scope{}, err
	}
	info, err := t.fs.Stat(loc.Abs)
	if err != nil {
		if os.IsNotExist(err) {
			return scope{}, fmt.Errorf("%w: %s", ErrPathMissing, loc.Display())
		}
		return scope{}, fmt.Errorf("failed to stat %s: %w", loc.Display(), err)
	}
	if !info.IsDir() {
		return scope{}, fmt.Errorf("%w: %s", ErrNotDirectory, loc.Display())
	}

	s := scope{loc: loc, base: loc.Abs}
	if loc.Inside {
		s.base = t.paths.Root()
		s.ig = t.ignore
	}
	return s, nil
}

// display renders a walked entry relative to the workspace, or absolute when external.
func (s scope) display(rel, abs string) string {
	if s.loc.Inside {
		return rel
	}
	return abs
}

func pageLimit(requested, def, max int) (int, error) {
	if requested == 0 {
		return def, nil
	}
	if requested > max {
		return 0, &LimitExceededError{Value: requested, Max: max}
	}
	return requested, nil
}
