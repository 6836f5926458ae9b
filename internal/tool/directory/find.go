package directory

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/glob"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/service/walk"
	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

type FindFileRequest struct {
	Pattern        string `json:"pattern"`
	Path           string `json:"path,omitempty"`
	MaxDepth       *int   `json:"max_depth,omitempty"`
	IncludeIgnored bool   `json:"include_ignored,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

func (r *FindFileRequest) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return ErrPatternMissing
	}
	if r.Offset < 0 {
		return ErrInvalidOffset
	}
	if r.Limit < 0 {
		return ErrInvalidLimit
	}
	if r.MaxDepth != nil && *r.MaxDepth < -1 {
		return ErrInvalidDepth
	}
	return nil
}

// FindFile returns the find_file tool.
func (t *Tools) FindFile() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "find_file",
		Description: "Find files by glob. A pattern without '/' matches file names (e.g. '*.go'); with '/' it matches the path below the search directory (e.g. 'internal/**/*_test.go').",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"pattern":         {Type: tool.TypeString, Description: "Glob pattern"},
				"path":            {Type: tool.TypeString, Description: "Directory to search (default: workspace root)"},
				"max_depth":       {Type: tool.TypeInteger, Description: "Recursion depth, -1 for unlimited (default)"},
				"include_ignored": {Type: tool.TypeBoolean, Description: "Include gitignored files"},
				"offset":          {Type: tool.TypeInteger, Description: "Matches to skip"},
				"limit":           {Type: tool.TypeInteger, Description: "Maximum matches to return"},
			},
			Required: []string{"pattern"},
		},
	}, t.find)
}

func (t *Tools) find(ctx context.Context, req *FindFileRequest) (tool.Result, error) {
	cfg := t.config.Tools
	limit, err := pageLimit(req.Limit, cfg.DefaultFindFileLimit, cfg.MaxFindFileLimit)
	if err != nil {
		return tool.Result{}, err
	}
	pattern := glob.NormalizePath(req.Pattern)
	if _, err := glob.Compile(glob.Path, pattern); err != nil {
		return tool.Result{}, fmt.Errorf("invalid pattern %q: %w", req.Pattern, err)
	}
	s, err := t.resolveDir(req.Path)
	if err != nil {
		return tool.Result{}, err
	}

	depth := -1
	if req.MaxDepth != nil {
		depth = *req.MaxDepth
	}
	byName := !strings.Contains(pattern, "/")

	maxResults := cfg.MaxFindFileResults
	var matches []string
	capped := false
	err = walk.Walk(ctx, s.loc.Abs, s.loc.Abs, ignoreFrom(s), walk.Options{MaxDepth: depth, IncludeIgnored: req.IncludeIgnored}, func(e walk.Entry) error {
		if e.IsDir {
			return nil
		}
		target := e.Rel
		if byName {
			target = path.Base(e.Rel)
		}
		if !glob.Match(glob.Path, pattern, target) {
			return nil
		}
		if len(matches) >= maxResults {
			capped = true
			return walk.ErrStop
		}
		matches = append(matches, s.display(s.rel(e.Rel), e.Abs))
		return nil
	})
	if err != nil {
		return tool.Result{}, fmt.Errorf("failed to search %s: %w", s.loc.Display(), err)
	}

	page, w := text.Page(matches, req.Offset, limit)

	var b strings.Builder
	if w.Total == 0 {
		fmt.Fprintf(&b, "No files matching %q", req.Pattern)
	}
	b.WriteString(strings.Join(page, "\n"))
	b.WriteString(w.Footer("files", capped, maxResults))

	return tool.Result{
		Content: b.String(),
		Display: tool.StringDisplay(fmt.Sprintf("Found %d files matching %s", w.Total, req.Pattern)),
	}, nil
}

// rel converts a path relative to the search directory into one relative to
// the walk base used for display.
func (s scope) rel(fromSearch string) string {
	if !s.loc.Inside || s.loc.Rel == "" {
		return fromSearch
	}
	return s.loc.Rel + "/" + fromSearch
}

// ignoreFrom adapts workspace-relative ignore rules to paths relative to the
// search directory, which is how find_file matches patterns.
func ignoreFrom(s scope) ignorer {
	if s.ig == nil {
		return nil
	}
	return prefixedIgnorer{prefix: s.loc.Rel, ig: s.ig}
}

type prefixedIgnorer struct {
	prefix string
	ig     ignorer
}

func (p prefixedIgnorer) Match(rel string, isDir bool) bool {
	if p.prefix != "" {
		rel = p.prefix + "/" + rel
	}
	return p.ig.Match(rel, isDir)
}
