package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

type WriteFileRequest struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

func (r *WriteFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// WriteFile returns the write_file tool.
func (t *Tools) WriteFile() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name: "write_file",
		Description: "Create a file with the given content. Parent directories are created. " +
			"Set overwrite to replace an existing file you have read in full; prefer edit_file for changes.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path":      {Type: tool.TypeString, Description: "Path to the file"},
				"content":   {Type: tool.TypeString, Description: "Full file content"},
				"overwrite": {Type: tool.TypeBoolean, Description: "Replace the file if it exists"},
			},
			Required: []string{"path", "content"},
		},
	}, t.write)
}

// write creates or replaces a file atomically. Replacing requires that the
// file is unchanged since the agent last read it.
func (t *Tools) write(ctx context.Context, req *WriteFileRequest) (tool.Result, error) {
	loc, err := t.locate(req.Path)
	if err != nil {
		return tool.Result{}, err
	}

	data := []byte(req.Content)
	if text.IsBinary(data) {
		return tool.Result{}, fmt.Errorf("%w: %s", ErrBinaryFile, loc.Display())
	}
	if maxFileSize := t.config.Tools.MaxFileSize; int64(len(data)) > maxFileSize {
		return tool.Result{}, fmt.Errorf("%w: %s (size %d, limit %d)", ErrFileTooLarge, loc.Display(), len(data), maxFileSize)
	}

	perm := os.FileMode(0o644)
	info, err := t.fs.Stat(loc.Abs)
	switch {
	case err == nil:
		if info.IsDir() {
			return tool.Result{}, fmt.Errorf("%w: %s", ErrIsDirectory, loc.Display())
		}
		if !req.Overwrite {
			return tool.Result{}, fmt.Errorf("%w: %s (use edit_file, or overwrite: true)", ErrFileExists, loc.Display())
		}
		if err := t.checkUnchanged(loc.Abs); err != nil {
			return tool.Result{}, err
		}
		perm = info.Mode().Perm()
	case os.IsNotExist(err):
		parentDir := filepath.Dir(loc.Abs)
		if err := t.fs.EnsureDirs(parentDir); err != nil {
			return tool.Result{}, fmt.Errorf("failed to create %s: %w", parentDir, err)
		}
	default:
		return tool.Result{}, &StatError{Path: loc.Abs, Cause: err}
	}

	if err := t.fs.WriteFileAtomic(loc.Abs, data, perm); err != nil {
		return tool.Result{}, &WriteError{Path: loc.Abs, Cause: err}
	}
	t.checksums.Update(loc.Abs, t.checksums.Compute(data))

	return tool.Result{
		Content: fmt.Sprintf("Wrote %d bytes to %s", len(data), loc.Display()),
		Display: tool.StringDisplay(fmt.Sprintf("Wrote %s (%d bytes)", loc.Display(), len(data))),
	}, nil
}

// checkUnchanged fails when the file was never read or changed since.
func (t *Tools) checkUnchanged(abs string) error {
	prior, ok := t.checksums.Get(abs)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotReadFirst, abs)
	}
	current, err := t.fs.ReadFileRange(abs, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", abs, err)
	}
	if t.checksums.Compute(current) != prior {
		return fmt.Errorf("%w: file changed since last read: %s", ErrEditConflict, abs)
	}
	return nil
}
