// Package path maps tool path arguments onto the workspace.
package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver places paths relative to one workspace root. It never rejects a
// path for leaving the workspace; callers decide what external paths may do.
type Resolver struct {
	root string
	home string
}

func NewResolver(root string) *Resolver {
	home, _ := os.UserHomeDir()
	return &Resolver{root: root, home: home}
}

func (r *Resolver) Root() string {
	return r.root
}

// Location describes where a path points relative to the workspace.
type Location struct {
	Abs    string
	Rel    string // slash-separated, empty for the root itself and for external paths
	Inside bool
}

// Display returns the path shown to the model: workspace-relative when
// inside, absolute otherwise.
func (l Location) Display() string {
	switch {
	case !l.Inside:
		return l.Abs
	case l.Rel == "":
		return "."
	default:
		return l.Rel
	}
}

// Locate resolves p against the root. A leading "~" is the user's home.
func (r *Resolver) Locate(p string) (Location, error) {
	if r.root == "" {
		return Location{}, ErrWorkspaceRootNotSet
	}
	abs := filepath.Clean(r.absolute(p))
	if !r.contains(abs) {
		return Location{Abs: abs}, nil
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return Location{Abs: abs}, nil
	}
	if rel == "." {
		rel = ""
	}
	return Location{Abs: abs, Rel: filepath.ToSlash(rel), Inside: true}, nil
}

func (r *Resolver) absolute(p string) string {
	if r.home != "" && (p == "~" || strings.HasPrefix(p, "~/")) {
		return filepath.Join(r.home, p[1:])
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.root, p)
}

func (r *Resolver) contains(abs string) bool {
	return abs == r.root || strings.HasPrefix(abs, r.root+string(filepath.Separator))
}

// CanonicaliseRoot makes root absolute and resolves its symlinks so that
// containment checks compare like with like.
func CanonicaliseRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &WorkspaceRootError{Root: abs, Cause: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &WorkspaceRootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &WorkspaceRootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}
