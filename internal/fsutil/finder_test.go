package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	for _, name := range []string{"b.txt", "a.edges", "notes.md", "nested/c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("1 2\n"), 0o644))
	}

	// --- Act ---
	files, err := FindFiles(root, ".txt", ".edges")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.edges"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "nested", "c.txt"),
	}, files)
}

func TestFindFiles_MissingRoot(t *testing.T) {
	t.Parallel()
	_, err := FindFiles(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCopyAndAtomicWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, WriteFileAtomic(src, []byte("5\n0\n"), 0o644))
	require.NoError(t, CopyFile(src, dst, 0o444))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "5\n0\n", string(got))
	assert.Equal(t, "roadNet-CA", Stem("/data/roadNet-CA.txt"))
}
