package file

import (
	"context"
	"fmt"
	"os"

	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

type ReadFileRequest struct {
	Path   string `json:"path"`
	Offset *int64 `json:"offset,omitempty"`
	Limit  *int64 `json:"limit,omitempty"`
}

func (r *ReadFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if r.Offset != nil && *r.Offset < 0 {
		return ErrInvalidOffset
	}
	if r.Limit != nil && *r.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// ReadFile returns the read_file tool.
func (t *Tools) ReadFile() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "read_file",
		Description: "Read a text file. Use offset and limit (bytes) to read part of a large file.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path":   {Type: tool.TypeString, Description: "Path to the file, relative to the workspace root"},
				"offset": {Type: tool.TypeInteger, Description: "Byte offset to start reading from"},
				"limit":  {Type: tool.TypeInteger, Description: "Maximum number of bytes to read"},
			},
			Required: []string{"path"},
		},
	}, t.read)
}

// read validates the file, rejects binaries and oversized files, and records
// a checksum when the whole file was read.
func (t *Tools) read(ctx context.Context, req *ReadFileRequest) (tool.Result, error) {
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

	var offset, limit int64
	if req.Offset != nil {
		offset = *req.Offset
	}
	if req.Limit != nil {
		limit = *req.Limit
	}

	maxFileSize := t.config.Tools.MaxFileSize
	if info.Size() > maxFileSize && (limit == 0 || limit > maxFileSize) {
		return tool.Result{}, fmt.Errorf("%w: %s (size %d, limit %d); read it in parts with offset and limit",
			ErrFileTooLarge, loc.Display(), info.Size(), maxFileSize)
	}

	data, err := t.fs.ReadFileRange(loc.Abs, offset, limit)
	if err != nil {
		return tool.Result{}, fmt.Errorf("failed to read %s: %w", loc.Display(), err)
	}
	if text.IsBinary(data) {
		return tool.Result{}, fmt.Errorf("%w: %s", ErrBinaryFile, loc.Display())
	}

	full := offset == 0 && int64(len(data)) == info.Size()
	if full {
		t.checksums.Update(loc.Abs, t.checksums.Compute(data))
	}

	text := string(data)
	if !full {
		text += fmt.Sprintf("\n[showing bytes %d-%d of %d]", offset, offset+int64(len(data)), info.Size())
	}
	return tool.Result{
		Content: text,
		Display: tool.StringDisplay(fmt.Sprintf("Read %s (%d bytes)", loc.Display(), len(data))),
	}, nil
}
