package path

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	r := &Resolver{root: "/workspace", home: "/home/dev"}

	tests := []struct {
		input string
		want  Location
	}{
		{"src/main.go", Location{Abs: "/workspace/src/main.go", Rel: "src/main.go", Inside: true}},
		{"./src/../src/main.go", Location{Abs: "/workspace/src/main.go", Rel: "src/main.go", Inside: true}},
		{".", Location{Abs: "/workspace", Inside: true}},
		{"/workspace", Location{Abs: "/workspace", Inside: true}},
		{"/workspace/a/b", Location{Abs: "/workspace/a/b", Rel: "a/b", Inside: true}},
		{"../other/x", Location{Abs: "/other/x"}},
		{"../../../etc/passwd", Location{Abs: "/etc/passwd"}},
		{"/etc/passwd", Location{Abs: "/etc/passwd"}},
		{"/workspacefoo/bar", Location{Abs: "/workspacefoo/bar"}},
		{"~/.ssh/id_rsa", Location{Abs: "/home/dev/.ssh/id_rsa"}},
		{"~", Location{Abs: "/home/dev"}},
		{"~user/x", Location{Abs: "/workspace/~user/x", Rel: "~user/x", Inside: true}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.Locate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocate_HomeInsideWorkspace(t *testing.T) {
	r := &Resolver{root: "/home/dev", home: "/home/dev"}

	got, err := r.Locate("~/notes.md")

	require.NoError(t, err)
	assert.Equal(t, Location{Abs: "/home/dev/notes.md", Rel: "notes.md", Inside: true}, got)
}

func TestLocate_NoRoot(t *testing.T) {
	_, err := NewResolver("").Locate("x")
	assert.ErrorIs(t, err, ErrWorkspaceRootNotSet)
}

func TestLocation_Display(t *testing.T) {
	assert.Equal(t, ".", Location{Abs: "/w", Inside: true}.Display())
	assert.Equal(t, "a/b", Location{Abs: "/w/a/b", Rel: "a/b", Inside: true}.Display())
	assert.Equal(t, "/etc/hosts", Location{Abs: "/etc/hosts"}.Display())
}

func TestCanonicaliseRoot(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	t.Run("directory", func(t *testing.T) {
		got, err := CanonicaliseRoot(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("symlink resolved", func(t *testing.T) {
		target := filepath.Join(dir, "real")
		require.NoError(t, os.Mkdir(target, 0o755))
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(target, link))

		got, err := CanonicaliseRoot(link)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := CanonicaliseRoot(filepath.Join(dir, "missing"))
		var rootErr *WorkspaceRootError
		assert.ErrorAs(t, err, &rootErr)
	})

	t.Run("file", func(t *testing.T) {
		f := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
		_, err := CanonicaliseRoot(f)
		assert.ErrorIs(t, err, ErrNotADirectory)
	})
}
