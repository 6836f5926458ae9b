package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Cyclone1070/agentcore/internal/tool"
)

type DeleteFileRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
}

func (r *DeleteFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// DeleteFile returns the delete_file tool.
func (t *Tools) DeleteFile() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "delete_file",
		Description: "Delete a file. Directories require recursive: true.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path":      {Type: tool.TypeString, Description: "Path to delete"},
				"recursive": {Type: tool.TypeBoolean, Description: "Delete a directory and its contents"},
			},
			Required: []string{"path"},
		},
	}, t.delete)
}

func (t *Tools) delete(ctx context.Context, req *DeleteFileRequest) (tool.Result, error) {
	loc, err := t.locate(req.Path)
	if err != nil {
		return tool.Result{}, err
	}
	if loc.Inside && loc.Rel == "" {
		return tool.Result{}, errors.New("refusing to delete the workspace root")
	}

	info, err := t.fs.Stat(loc.Abs)
	if err != nil {
		if os.IsNotExist(err) {
			return tool.Result{}, fmt.Errorf("%w: %s", ErrFileMissing, loc.Display())
		}
		return tool.Result{}, &StatError{Path: loc.Abs, Cause: err}
	}

	if info.IsDir() {
		if !req.Recursive {
			return tool.Result{}, fmt.Errorf("%w: %s (set recursive to delete it)", ErrIsDirectory, loc.Display())
		}
		err = t.fs.RemoveAll(loc.Abs)
	} else {
		err = t.fs.Remove(loc.Abs)
	}
	if err != nil {
		return tool.Result{}, fmt.Errorf("failed to delete %s: %w", loc.Display(), err)
	}
	t.checksums.Forget(loc.Abs)

	return tool.Text(fmt.Sprintf("Deleted %s", loc.Display())), nil
}
