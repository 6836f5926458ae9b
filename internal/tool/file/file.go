// Package file implements the read_file, write_file, edit_file and
// delete_file tools.
package file

import (
	"os"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/service/path"
)

// fileSystem defines the filesystem operations the file tools need.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFileRange(path string, offset, limit int64) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
	Remove(path string) error
	RemoveAll(path string) error
}

// locator resolves model-supplied paths. Boundary policy is enforced by the
// permission layer before a tool runs, so external paths are allowed here.
type locator interface {
	Locate(path string) (path.Location, error)
}

// checksumStore tracks what the agent last saw of each file.
type checksumStore interface {
	Compute(data []byte) string
	Get(path string) (string, bool)
	Update(path string, checksum string)
	Forget(path string)
}

// Tools bundles the file tools over shared dependencies.
type Tools struct {
	fs        fileSystem
	paths     locator
	checksums checksumStore
	config    *config.Config
}

// New creates the file tools with injected dependencies.
func New(fs fileSystem, paths locator, checksums checksumStore, cfg *config.Config) *Tools {
	if fs == nil {
		panic("fs is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	if checksums == nil {
		panic("checksums is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &Tools{fs: fs, paths: paths, checksums: checksums, config: cfg}
}

// All returns every file tool.
func (t *Tools) All() []tool.Tool {
	return []tool.Tool{t.ReadFile(), t.WriteFile(), t.EditFile(), t.DeleteFile()}
}

func (t *Tools) locate(p string) (path.Location, error) {
	if p == "" {
		return path.Location{}, ErrPathRequired
	}
	return t.paths.Locate(p)
}
