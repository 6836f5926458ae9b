package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/pmezard/go-difflib/difflib"
)

type EditOperation struct {
	Before               string `json:"before"`
	After                string `json:"after"`
	ExpectedReplacements int    `json:"expected_replacements,omitempty"`
}

type EditFileRequest struct {
	Path       string          `json:"path"`
	Operations []EditOperation `json:"operations"`
}

func (r *EditFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if len(r.Operations) == 0 {
		return ErrOperationsRequired
	}
	return nil
}

// EditFile returns the edit_file tool.
func (t *Tools) EditFile() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "edit_file",
		Description: "Edit an existing file by replacing text. Supports multiple operations applied in order. An empty before appends.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path": {Type: tool.TypeString, Description: "Path to file"},
				"operations": {
					Type:        tool.TypeArray,
					Description: "List of edit operations",
					Items: &tool.Schema{
						Type: tool.TypeObject,
						Properties: map[string]*tool.Schema{
							"before":                {Type: tool.TypeString, Description: "Text to find"},
							"after":                 {Type: tool.TypeString, Description: "Replacement text"},
							"expected_replacements": {Type: tool.TypeInteger, Description: "Expected match count (default 1)"},
						},
						Required: []string{"before", "after"},
					},
				},
			},
			Required: []string{"path", "operations"},
		},
	}, t.edit)
}

// edit applies operations to an existing file. It detects concurrent
// modifications by comparing checksums and writes atomically.
//
// There is a narrow window between the checksum check and the write.
func (t *Tools) edit(ctx context.Context, req *EditFileRequest) (tool.Result, error) {
	loc, err := t.locate(req.Path)
	if err != nil {
		return tool.Result{}, err
	}

	info, err := t.fs.Stat(loc.Abs)
	if err != nil {
		if os.IsNotExist(err) {
			return tool.Result{}, fmt.Errorf("%w: %s", ErrFileMissing, loc.Display())
		}
		return tool.Result{}, &StatError{Path: loc.Abs, Cause: err}
	}
	if info.IsDir() {
		return tool.Result{}, fmt.Errorf("%w: %s", ErrIsDirectory, loc.Display())
	}

	data, err := t.fs.ReadFileRange(loc.Abs, 0, 0)
	if err != nil {
		return tool.Result{}, fmt.Errorf("failed to read %s: %w", loc.Display(), err)
	}
	if prior, ok := t.checksums.Get(loc.Abs); ok && prior != t.checksums.Compute(data) {
		return tool.Result{}, fmt.Errorf("%w: file changed since last read: %s", ErrEditConflict, loc.Display())
	}

	rawContent := string(data)
	hasCRLF := strings.Contains(rawContent, "\r\n")
	oldContent := strings.ReplaceAll(rawContent, "\r\n", "\n")

	updated, err := applyOperations(oldContent, req.Operations)
	if err != nil {
		return tool.Result{}, fmt.Errorf("%s: %w", loc.Display(), err)
	}

	final := updated
	if hasCRLF {
		final = strings.ReplaceAll(updated, "\n", "\r\n")
	}
	out := []byte(final)
	if maxFileSize := t.config.Tools.MaxFileSize; int64(len(out)) > maxFileSize {
		return tool.Result{}, fmt.Errorf("%w after edit: %s (size %d, limit %d)", ErrFileTooLarge, loc.Display(), len(out), maxFileSize)
	}

	if err := t.fs.WriteFileAtomic(loc.Abs, out, info.Mode().Perm()); err != nil {
		return tool.Result{}, &WriteError{Path: loc.Abs, Cause: err}
	}
	t.checksums.Update(loc.Abs, t.checksums.Compute(out))

	diff, added, removed := computeUnifiedDiff(filepath.Base(loc.Abs), oldContent, updated)
	return tool.Result{
		Content: fmt.Sprintf("Applied %d operation(s) to %s (+%d -%d)\n%s", len(req.Operations), loc.Display(), added, removed, diff),
		Display: tool.DiffDisplay{Diff: diff, AddedLines: added, RemovedLines: removed},
	}, nil
}

// applyOperations runs each replacement in order on LF-normalized content.
func applyOperations(content string, ops []EditOperation) (string, error) {
	for i, op := range ops {
		before := strings.ReplaceAll(op.Before, "\r\n", "\n")
		after := strings.ReplaceAll(op.After, "\r\n", "\n")

		// Empty before appends; the end of file is a single target.
		if before == "" {
			if op.ExpectedReplacements > 1 {
				return "", fmt.Errorf("operation %d: %w: append has 1 target, got %d", i+1, ErrReplacementCountMismatch, op.ExpectedReplacements)
			}
			content += after
			continue
		}

		expected := op.ExpectedReplacements
		if expected == 0 {
			expected = 1
		}
		count := strings.Count(content, before)
		if count == 0 {
			return "", fmt.Errorf("operation %d: %w: %q", i+1, ErrSnippetNotFound, op.Before)
		}
		if count != expected {
			return "", fmt.Errorf("operation %d: %w: expected %d, found %d", i+1, ErrReplacementCountMismatch, expected, count)
		}
		content = strings.Replace(content, before, after, expected)
	}
	return content, nil
}

func computeUnifiedDiff(filename, oldContent, newContent string) (diff string, added, removed int) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  3,
	}
	diff, _ = difflib.GetUnifiedDiffString(ud)

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			added++
		} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			removed++
		}
	}
	return diff, added, removed
}
