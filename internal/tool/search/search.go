// Package search implements the search_content tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/glob"
	"github.com/Cyclone1070/agentcore/internal/tool"
	pathsvc "github.com/Cyclone1070/agentcore/internal/tool/service/path"
	"github.com/Cyclone1070/agentcore/internal/tool/service/walk"
	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

var (
	ErrQueryRequired = errors.New("query is required")
	ErrPathMissing   = errors.New("path does not exist")
)

type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFileRange(path string, offset, limit int64) ([]byte, error)
}

type locator interface {
	Root() string
	Locate(path string) (pathsvc.Location, error)
}

type ignorer interface {
	Match(rel string, isDir bool) bool
}

// Match is a single matching line.
type Match struct {
	File string
	Line int // 1-based
	Text string
}

type SearchContentRequest struct {
	Query          string `json:"query"`
	Path           string `json:"path,omitempty"`
	Include        string `json:"include,omitempty"`
	CaseSensitive  bool   `json:"case_sensitive,omitempty"`
	IncludeIgnored bool   `json:"include_ignored,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

func (r *SearchContentRequest) Validate() error {
	if r.Query == "" {
		return ErrQueryRequired
	}
	return nil
}

// Tool searches file contents with regular expressions.
type Tool struct {
	fs     fileSystem
	paths  locator
	ignore ignorer
	config *config.Config
}

// New creates the search tool. A nil ignore disables gitignore filtering.
func New(fs fileSystem, paths locator, ignore ignorer, cfg *config.Config) *Tool {
	if fs == nil {
		panic("fs is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Tool{fs: fs, paths: paths, ignore: ignore, config: cfg}
}

// SearchContent returns the search_content tool.
func (t *Tool) SearchContent() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "search_content",
		Description: "Search file contents with a regular expression. Case-insensitive unless case_sensitive is set. Results are 'file:line: text'.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"query":           {Type: tool.TypeString, Description: "Regular expression (RE2 syntax)"},
				"path":            {Type: tool.TypeString, Description: "File or directory to search (default: workspace root)"},
				"include":         {Type: tool.TypeString, Description: "Only search files whose name matches this glob, e.g. '*.go'"},
				"case_sensitive":  {Type: tool.TypeBoolean, Description: "Match case exactly"},
				"include_ignored": {Type: tool.TypeBoolean, Description: "Search gitignored files"},
				"offset":          {Type: tool.TypeInteger, Description: "Matches to skip"},
				"limit":           {Type: tool.TypeInteger, Description: "Maximum matches to return"},
			},
			Required: []string{"query"},
		},
	}, t.search)
}

func (t *Tool) search(ctx context.Context, req *SearchContentRequest) (tool.Result, error) {
	cfg := t.config.Tools
	offset := max(req.Offset, 0)
	limit := req.Limit
	if limit <= 0 {
		limit = cfg.DefaultSearchContentLimit
	}
	limit = min(limit, cfg.MaxSearchContentLimit)

	expr := req.Query
	if !req.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return tool.Result{}, fmt.Errorf("invalid query %q: %w", req.Query, err)
	}

	p := req.Path
	if p == "" {
		p = "."
	}
	loc, err := t.paths.Locate(p)
	if err != nil {
		return tool.Result{}, err
	}
	info, err := t.fs.Stat(loc.Abs)
	if err != nil {
		if os.IsNotExist(err) {
			return tool.Result{}, fmt.Errorf("%w: %s", ErrPathMissing, loc.Display())
		}
		return tool.Result{}, fmt.Errorf("failed to stat %s: %w", loc.Display(), err)
	}

	s := &scan{t: t, re: re, maxResults: cfg.MaxSearchContentResults, maxLine: cfg.MaxLineLength}
	if info.IsDir() {
		base, ig := loc.Abs, ignorer(nil)
		if loc.Inside {
			base, ig = t.paths.Root(), t.ignore
		}
		err = walk.Walk(ctx, loc.Abs, base, ig, walk.Options{MaxDepth: -1, IncludeIgnored: req.IncludeIgnored}, func(e walk.Entry) error {
			if e.IsDir {
				return nil
			}
			if req.Include != "" && !glob.Match(glob.Path, req.Include, path.Base(e.Rel)) {
				return nil
			}
			name := e.Rel
			if !loc.Inside {
				name = e.Abs
			}
			return s.file(e.Abs, name)
		})
	} else {
		err = s.file(loc.Abs, loc.Display())
		if errors.Is(err, walk.ErrStop) {
			err = nil
		}
	}
	if err != nil {
		return tool.Result{}, fmt.Errorf("failed to search %s: %w", loc.Display(), err)
	}

	page, w := text.Page(s.matches, offset, limit)

	var b strings.Builder
	if w.Total == 0 {
		fmt.Fprintf(&b, "No matches for %q", req.Query)
	}
	for i, m := range page {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s:%d: %s", m.File, m.Line, m.Text)
	}
	b.WriteString(w.Footer("matches", s.capped, s.maxResults))

	return tool.Result{
		Content: b.String(),
		Display: tool.StringDisplay(fmt.Sprintf("Searched for %s (%d matches)", req.Query, w.Total)),
	}, nil
}

type scan struct {
	t          *Tool
	re         *regexp.Regexp
	maxResults int
	maxLine    int
	matches    []Match
	capped     bool
}

// file scans one file. Binary and oversized files are skipped silently.
func (s *scan) file(abs, name string) error {
	info, err := s.t.fs.Stat(abs)
	if err != nil || info.Size() > s.t.config.Tools.MaxFileSize {
		return nil
	}
	data, err := s.t.fs.ReadFileRange(abs, 0, 0)
	if err != nil || text.IsBinary(data) {
		return nil
	}
	for i, line := range text.Lines(string(data)) {
		if !s.re.MatchString(line) {
			continue
		}
		if len(s.matches) >= s.maxResults {
			s.capped = true
			return walk.ErrStop
		}
		s.matches = append(s.matches, Match{File: name, Line: i + 1, Text: truncate(strings.TrimRight(line, "\r"), s.maxLine)})
	}
	return nil
}

func truncate(line string, n int) string {
	if n <= 0 || len(line) <= n {
		return line
	}
	return line[:n] + "...[truncated]"
}
