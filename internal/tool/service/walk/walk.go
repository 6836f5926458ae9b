// Package walk traverses directory trees for the listing and search tools,
// honouring gitignore rules and a depth limit.
package walk

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
)

// ErrStop ends a walk early without reporting an error.
var ErrStop = errors.New("stop walk")

// ignorer reports whether a path, relative to the workspace, is ignored.
type ignorer interface {
	Match(rel string, isDir bool) bool
}

// Entry is one visited file or directory.
type Entry struct {
	Abs   string
	Rel   string // slash-separated, relative to the walk base
	IsDir bool
	Depth int // 0 for direct children of the walk root
	Info  fs.DirEntry
}

// Options control a walk.
type Options struct {
	// MaxDepth limits recursion: 0 lists direct children only, negative is unlimited.
	MaxDepth       int
	IncludeIgnored bool
}

// Walk visits every entry below root in lexical order. Rel paths are made
// relative to base, which is also the frame for ignore rules. Returning
// fs.SkipDir from fn skips a directory; ErrStop ends the walk cleanly.
// Symlinked directories are not followed.
func Walk(ctx context.Context, root, base string, ig ignorer, opts Options, fn func(Entry) error) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			// Unreadable entries are skipped rather than failing the walk.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		relRoot, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		depth := len(splitSlash(filepath.ToSlash(relRoot))) - 1

		rel, err := filepath.Rel(base, p)
		if err != nil {
			rel = relRoot
		}
		rel = filepath.ToSlash(rel)

		if !opts.IncludeIgnored && ig != nil && ig.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if err := fn(Entry{Abs: p, Rel: rel, IsDir: d.IsDir(), Depth: depth, Info: d}); err != nil {
			return err
		}

		if d.IsDir() && opts.MaxDepth >= 0 && depth >= opts.MaxDepth {
			return fs.SkipDir
		}
		return nil
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func splitSlash(p string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	return append(parts, p[start:])
}
