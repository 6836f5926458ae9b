package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/service/fs"
	"github.com/Cyclone1070/agentcore/internal/tool/service/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	root  string
	cfg   *config.Config
	tools *Tools
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root, err := path.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	return &fixture{
		root:  root,
		cfg:   cfg,
		tools: New(fs.NewOSFileSystem(), path.NewResolver(root), fs.NewChecksumStore(), cfg),
	}
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	abs := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func run(t *testing.T, inv tool.Invocable, args map[string]any) (tool.Result, error) {
	t.Helper()
	return inv.Execute(context.Background(), args)
}

func TestReadFile_Full(t *testing.T) {
	f := newFixture(t)
	f.write(t, "src/main.go", "package main\n")

	res, err := run(t, f.tools.ReadFile(), map[string]any{"path": "src/main.go"})

	require.NoError(t, err)
	assert.Equal(t, "package main\n", res.Content)
	assert.Equal(t, tool.StringDisplay("Read src/main.go (13 bytes)"), res.Display)
}

func TestReadFile_Range(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "0123456789")

	res, err := run(t, f.tools.ReadFile(), map[string]any{"path": "a.txt", "offset": 2, "limit": 3})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, "234"))
	assert.Contains(t, res.Content, "[showing bytes 2-5 of 10]")
}

func TestReadFile_Errors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "bin.dat", "a\x00b")
	f.write(t, "big.txt", strings.Repeat("x", 64))
	require.NoError(t, os.Mkdir(filepath.Join(f.root, "dir"), 0o755))
	f.cfg.Tools.MaxFileSize = 32

	tests := []struct {
		name string
		args map[string]any
		want error
	}{
		{"missing", map[string]any{"path": "nope.txt"}, ErrFileMissing},
		{"directory", map[string]any{"path": "dir"}, ErrIsDirectory},
		{"binary", map[string]any{"path": "bin.dat"}, ErrBinaryFile},
		{"too large", map[string]any{"path": "big.txt"}, ErrFileTooLarge},
		{"empty path", map[string]any{"path": ""}, ErrPathRequired},
		{"negative offset", map[string]any{"path": "a", "offset": -1}, ErrInvalidOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, f.tools.ReadFile(), tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadFile_TooLargeButRanged(t *testing.T) {
	f := newFixture(t)
	f.write(t, "big.txt", strings.Repeat("x", 64))
	f.cfg.Tools.MaxFileSize = 32

	res, err := run(t, f.tools.ReadFile(), map[string]any{"path": "big.txt", "limit": 16})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, strings.Repeat("x", 16)))
}

func TestReadFile_OutsideWorkspace(t *testing.T) {
	f := newFixture(t)
	outside := filepath.Join(t.TempDir(), "ext.txt")
	require.NoError(t, os.WriteFile(outside, []byte("external"), 0o644))

	res, err := run(t, f.tools.ReadFile(), map[string]any{"path": outside})

	require.NoError(t, err)
	assert.Equal(t, "external", res.Content)
}

func TestWriteFile_CreatesWithParents(t *testing.T) {
	f := newFixture(t)

	res, err := run(t, f.tools.WriteFile(), map[string]any{"path": "a/b/c.txt", "content": "hello"})

	require.NoError(t, err)
	assert.Equal(t, "Wrote 5 bytes to a/b/c.txt", res.Content)
	data, err := os.ReadFile(filepath.Join(f.root, "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteFile_ExistingWithoutOverwrite(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "old")

	_, err := run(t, f.tools.WriteFile(), map[string]any{"path": "a.txt", "content": "new"})

	assert.ErrorIs(t, err, ErrFileExists)
}

func TestWriteFile_OverwriteRequiresRead(t *testing.T) {
	f := newFixture(t)
	abs := f.write(t, "a.txt", "old")

	_, err := run(t, f.tools.WriteFile(), map[string]any{"path": "a.txt", "content": "new", "overwrite": true})
	assert.ErrorIs(t, err, ErrNotReadFirst)

	_, err = run(t, f.tools.ReadFile(), map[string]any{"path": "a.txt"})
	require.NoError(t, err)
	_, err = run(t, f.tools.WriteFile(), map[string]any{"path": "a.txt", "content": "new", "overwrite": true})
	require.NoError(t, err)

	data, _ := os.ReadFile(abs)
	assert.Equal(t, "new", string(data))
}

func TestWriteFile_OverwriteDetectsExternalChange(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "old")
	_, err := run(t, f.tools.ReadFile(), map[string]any{"path": "a.txt"})
	require.NoError(t, err)
	f.write(t, "a.txt", "changed elsewhere")

	_, err = run(t, f.tools.WriteFile(), map[string]any{"path": "a.txt", "content": "new", "overwrite": true})

	assert.ErrorIs(t, err, ErrEditConflict)
}

func TestWriteFile_BinaryAndSize(t *testing.T) {
	f := newFixture(t)
	f.cfg.Tools.MaxFileSize = 4

	_, err := run(t, f.tools.WriteFile(), map[string]any{"path": "b", "content": "a\x00"})
	assert.ErrorIs(t, err, ErrBinaryFile)

	_, err = run(t, f.tools.WriteFile(), map[string]any{"path": "c", "content": "too long"})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestEditFile_ReplacesAndReturnsDiff(t *testing.T) {
	f := newFixture(t)
	abs := f.write(t, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")

	res, err := run(t, f.tools.EditFile(), map[string]any{
		"path": "main.go",
		"operations": []any{
			map[string]any{"before": "\"hi\"", "after": "\"hello\""},
		},
	})

	require.NoError(t, err)
	data, _ := os.ReadFile(abs)
	assert.Contains(t, string(data), "println(\"hello\")")

	diff, ok := res.Display.(tool.DiffDisplay)
	require.True(t, ok)
	assert.Equal(t, 1, diff.AddedLines)
	assert.Equal(t, 1, diff.RemovedLines)
	assert.Contains(t, diff.Diff, "+\tprintln(\"hello\")")
	assert.Contains(t, res.Content, "+1 -1")
}

func TestEditFile_PreservesCRLF(t *testing.T) {
	f := newFixture(t)
	abs := f.write(t, "win.txt", "one\r\ntwo\r\n")

	_, err := run(t, f.tools.EditFile(), map[string]any{
		"path":       "win.txt",
		"operations": []any{map[string]any{"before": "two", "after": "three"}},
	})

	require.NoError(t, err)
	data, _ := os.ReadFile(abs)
	assert.Equal(t, "one\r\nthree\r\n", string(data))
}

func TestEditFile_Errors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "x x y")

	tests := []struct {
		name string
		ops  []any
		want error
	}{
		{"not found", []any{map[string]any{"before": "zzz", "after": "q"}}, ErrSnippetNotFound},
		{"ambiguous", []any{map[string]any{"before": "x", "after": "q"}}, ErrReplacementCountMismatch},
		{"append count", []any{map[string]any{"before": "", "after": "q", "expected_replacements": 2}}, ErrReplacementCountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, f.tools.EditFile(), map[string]any{"path": "a.txt", "operations": tt.ops})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := run(t, f.tools.EditFile(), map[string]any{"path": "a.txt", "operations": []any{}})
	assert.ErrorIs(t, err, ErrOperationsRequired)

	_, err = run(t, f.tools.EditFile(), map[string]any{"path": "missing.txt", "operations": []any{map[string]any{"before": "a", "after": "b"}}})
	assert.ErrorIs(t, err, ErrFileMissing)
}

func TestEditFile_MultipleAndAppend(t *testing.T) {
	f := newFixture(t)
	abs := f.write(t, "a.txt", "x x y")

	_, err := run(t, f.tools.EditFile(), map[string]any{
		"path": "a.txt",
		"operations": []any{
			map[string]any{"before": "x", "after": "z", "expected_replacements": 2},
			map[string]any{"before": "", "after": "\nend"},
		},
	})

	require.NoError(t, err)
	data, _ := os.ReadFile(abs)
	assert.Equal(t, "z z y\nend", string(data))
}

func TestEditFile_ConflictAfterExternalChange(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "one")
	_, err := run(t, f.tools.ReadFile(), map[string]any{"path": "a.txt"})
	require.NoError(t, err)
	f.write(t, "a.txt", "one two")

	_, err = run(t, f.tools.EditFile(), map[string]any{
		"path":       "a.txt",
		"operations": []any{map[string]any{"before": "one", "after": "1"}},
	})

	assert.ErrorIs(t, err, ErrEditConflict)
}

func TestDeleteFile(t *testing.T) {
	f := newFixture(t)
	abs := f.write(t, "a.txt", "x")
	f.write(t, "dir/b.txt", "y")

	res, err := run(t, f.tools.DeleteFile(), map[string]any{"path": "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "Deleted a.txt", res.Content)
	_, statErr := os.Stat(abs)
	assert.True(t, os.IsNotExist(statErr))

	_, err = run(t, f.tools.DeleteFile(), map[string]any{"path": "dir"})
	assert.ErrorIs(t, err, ErrIsDirectory)

	_, err = run(t, f.tools.DeleteFile(), map[string]any{"path": "dir", "recursive": true})
	require.NoError(t, err)

	_, err = run(t, f.tools.DeleteFile(), map[string]any{"path": "gone"})
	assert.ErrorIs(t, err, ErrFileMissing)

	_, err = run(t, f.tools.DeleteFile(), map[string]any{"path": ".", "recursive": true})
	assert.Error(t, err)
}

func TestAll_Names(t *testing.T) {
	f := newFixture(t)
	var names []string
	for _, tl := range f.tools.All() {
		names = append(names, tl.Declaration().Name)
	}
	assert.Equal(t, []string{"read_file", "write_file", "edit_file", "delete_file"}, names)
}

func TestNew_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { New(nil, path.NewResolver("/w"), fs.NewChecksumStore(), config.DefaultConfig()) })
}
