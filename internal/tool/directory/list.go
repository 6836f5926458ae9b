package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/service/walk"
	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

// Entry is one listed path.
type Entry struct {
	Path  string
	IsDir bool
}

type ListDirectoryRequest struct {
	Path           string `json:"path"`
	MaxDepth       int    `json:"max_depth,omitempty"`
	IncludeIgnored bool   `json:"include_ignored,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

func (r *ListDirectoryRequest) Validate() error {
	if r.Offset < 0 {
		return ErrInvalidOffset
	}
	if r.Limit < 0 {
		return ErrInvalidLimit
	}
	if r.MaxDepth < -1 {
		return ErrInvalidDepth
	}
	return nil
}

// ListDirectory returns the list_directory tool.
func (t *Tools) ListDirectory() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "list_directory",
		Description: "List directory contents. Directories are listed first and end with '/'. max_depth 0 lists direct children only, -1 recurses without limit.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path":            {Type: tool.TypeString, Description: "Directory to list (default: workspace root)"},
				"max_depth":       {Type: tool.TypeInteger, Description: "Recursion depth (default 0)"},
				"include_ignored": {Type: tool.TypeBoolean, Description: "Include gitignored entries"},
				"offset":          {Type: tool.TypeInteger, Description: "Entries to skip"},
				"limit":           {Type: tool.TypeInteger, Description: "Maximum entries to return"},
			},
		},
	}, t.list)
}

func (t *Tools) list(ctx context.Context, req *ListDirectoryRequest) (tool.Result, error) {
	cfg := t.config.Tools
	limit, err := pageLimit(req.Limit, cfg.DefaultListDirectoryLimit, cfg.MaxListDirectoryLimit)
	if err != nil {
		return tool.Result{}, err
	}
	s, err := t.resolveDir(req.Path)
	if err != nil {
		return tool.Result{}, err
	}

	maxResults := cfg.MaxListDirectoryResults
	var entries []Entry
	capped := false
	err = walk.Walk(ctx, s.loc.Abs, s.base, s.ig, walk.Options{MaxDepth: req.MaxDepth, IncludeIgnored: req.IncludeIgnored}, func(e walk.Entry) error {
		if len(entries) >= maxResults {
			capped = true
			return walk.ErrStop
		}
		entries = append(entries, Entry{Path: s.display(e.Rel, e.Abs), IsDir: e.IsDir})
		return nil
	})
	if err != nil {
		return tool.Result{}, fmt.Errorf("failed to list %s: %w", s.loc.Display(), err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Path < entries[j].Path
	})

	page, w := text.Page(entries, req.Offset, limit)

	lines := make([]string, len(page))
	for i, e := range page {
		lines[i] = e.Path
		if e.IsDir {
			lines[i] += "/"
		}
	}
	var b strings.Builder
	if w.Total == 0 {
		b.WriteString("(empty directory)")
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString(w.Footer("entries", capped, maxResults))

	return tool.Result{
		Content: b.String(),
		Display: tool.StringDisplay(fmt.Sprintf("Listed %s (%d entries)", s.loc.Display(), w.Total)),
	}, nil
}
