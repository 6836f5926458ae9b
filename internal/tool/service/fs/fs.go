// Package fs is the filesystem the file tools run against.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OSFileSystem is the local filesystem.
type OSFileSystem struct{}

func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Stat follows symlinks.
func (*OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadFileRange reads up to limit bytes from offset. A zero limit reads to
// the end of the file. An offset past the end yields no bytes.
func (*OSFileSystem) ReadFileRange(path string, offset, limit int64) ([]byte, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if offset == 0 && limit == 0 {
		return io.ReadAll(f)
	}
	n := limit
	if n == 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		n = max(info.Size()-offset, 0)
	}
	return io.ReadAll(io.NewSectionReader(f, offset, n))
}

// WriteFileAtomic writes through a temp file in the target's directory and
// renames it into place, so readers never see a partial file.
func (*OSFileSystem) WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Step: "create temp", Cause: err}
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return &WriteError{Path: path, Step: "write", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: path, Step: "sync", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Step: "close", Cause: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Step: "rename", Cause: err}
	}
	committed = true

	if err := os.Chmod(path, perm); err != nil {
		return &WriteError{Path: path, Step: "chmod", Cause: err}
	}
	return nil
}

func (*OSFileSystem) EnsureDirs(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Remove deletes a file or an empty directory.
func (*OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

func (*OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
