// Package git applies a workspace's gitignore rules to tool listings.
package git

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/Cyclone1070/agentcore/internal/tool/text"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GitignoreReadError is returned when an ignore file exists but cannot be read.
type GitignoreReadError struct {
	Path  string
	Cause error
}

func (e *GitignoreReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Cause)
}

func (e *GitignoreReadError) Unwrap() error { return e.Cause }

const ignoreFile = ".gitignore"

var infoExclude = filepath.Join(".git", "info", "exclude")

// IgnoreMatcher answers whether a workspace-relative path is ignored by
// .git/info/exclude or any .gitignore in the tree. .git itself is always
// ignored.
type IgnoreMatcher struct {
	matcher gitignore.Matcher
}

// NewIgnoreMatcher loads every ignore file under root. Directories that are
// already ignored are not searched for further .gitignore files, and
// symlinked directories are not followed.
func NewIgnoreMatcher(root string) (*IgnoreMatcher, error) {
	if root == "" {
		panic("root is required")
	}
	l := loader{fs: osfs.New(root), patterns: []gitignore.Pattern{gitignore.ParsePattern(".git/", nil)}}

	ps, err := l.read(infoExclude, nil)
	if err != nil {
		return nil, err
	}
	l.patterns = append(l.patterns, ps...)

	if err := l.walk(nil); err != nil {
		return nil, err
	}
	return &IgnoreMatcher{matcher: gitignore.NewMatcher(l.patterns)}, nil
}

// Match checks a slash or OS separated relative path. isDir enables
// directory-only patterns such as "build/".
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	segments := segments(rel)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

type loader struct {
	fs       billy.Filesystem
	patterns []gitignore.Pattern
}

// walk reads dir's .gitignore, then descends into subdirectories that the
// patterns gathered so far do not ignore. Later patterns take precedence, so
// deeper files override shallower ones.
func (l *loader) walk(dir []string) error {
	ps, err := l.read(ignoreFile, dir)
	if err != nil {
		return err
	}
	l.patterns = append(l.patterns, ps...)

	name := "."
	if len(dir) > 0 {
		name = l.fs.Join(dir...)
	}
	entries, err := l.fs.ReadDir(name)
	if err != nil {
		if len(dir) == 0 {
			return &GitignoreReadError{Path: l.fs.Root(), Cause: err}
		}
		return nil
	}

	m := gitignore.NewMatcher(l.patterns)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := append(slices.Clone(dir), e.Name())
		if m.Match(sub, true) {
			continue
		}
		if err := l.walk(sub); err != nil {
			return err
		}
	}
	return nil
}

// read parses file inside dir. Patterns are scoped to dir. A missing file
// yields no patterns.
func (l *loader) read(file string, dir []string) ([]gitignore.Pattern, error) {
	p := l.fs.Join(append(slices.Clone(dir), file)...)
	data, err := util.ReadFile(l.fs, p)
	if err != nil {
		// ENOTDIR: .git is a file in worktrees and submodules.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, nil
		}
		return nil, &GitignoreReadError{Path: l.fs.Join(l.fs.Root(), p), Cause: err}
	}

	var ps []gitignore.Pattern
	for _, line := range text.Lines(string(data)) {
		line = strings.TrimRight(line, " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, dir))
	}
	return ps, nil
}

func segments(rel string) []string {
	var out []string
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
