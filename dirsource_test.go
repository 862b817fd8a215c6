package comicsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowleaf/comicsource/internal/testutil"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
}

func TestOpenDirectory(t *testing.T) {
	page := testutil.PNG(t, 2, 2)
	root := filepath.Join(t.TempDir(), "scans")
	writeTree(t, root, map[string][]byte{
		"b.jpg":           page,
		"sub1/a10.png":    page,
		"sub1/a2.png":     page,
		"notes.txt":       []byte("ignored"),
		".hidden/x.png":   page,
		"__MACOSX/y.png":  page,
		"sub1/._a2.png":   page,
		"sub1/.thumb.png": page,
	})

	src, err := Open(context.Background(), root)
	require.NoError(t, err)
	defer src.Close()

	ds, ok := src.(*DirSource)
	require.True(t, ok)
	assert.Equal(t, "scans", ds.Name())
	assert.False(t, ds.Standalone())
	require.Equal(t, 3, ds.Count())

	var rels []string
	for i := 0; i < ds.Count(); i++ {
		rel, err := ds.RelativePath(i)
		require.NoError(t, err)
		rels = append(rels, rel)
	}
	assert.Equal(t, []string{"b.jpg", "sub1/a2.png", "sub1/a10.png"}, rels)

	dim, err := ds.ImageSize(1)
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 2, Height: 2}, dim)

	date, err := ds.FileDate(0)
	require.NoError(t, err)
	assert.False(t, date.IsZero())

	_, err = ds.FileName(3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenDirectoryEmpty(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"readme.md": []byte("x")})

	_, err := Open(context.Background(), root)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestOpenStandaloneFile(t *testing.T) {
	dir := t.TempDir()
	page := testutil.JPEG(t, 5, 7)
	path := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(path, page, 0o644))

	src, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer src.Close()

	assert.True(t, src.Standalone())
	assert.Equal(t, "cover", src.Name())
	require.Equal(t, 1, src.Count())

	dim, err := src.ImageSize(0)
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 5, Height: 7}, dim)

	// A lone image file is recognized by content: renaming keeps the key.
	key1, err := src.FileKey()
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, key1)

	renamed := filepath.Join(dir, "renamed.jpg")
	require.NoError(t, os.Rename(path, renamed))

	src2, err := Open(context.Background(), renamed)
	require.NoError(t, err)
	defer src2.Close()
	key2, err := src2.FileKey()
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestOpenStandaloneNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	_, err := Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestFolderIdentityIsLocationBased(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library")
	writeTree(t, root, map[string][]byte{"p1.png": testutil.PNG(t, 2, 2)})

	src, err := Open(context.Background(), root)
	require.NoError(t, err)
	defer src.Close()

	key1, err := src.FileKey()
	require.NoError(t, err)
	assert.Contains(t, key1, "dir-")

	// Folder identity tolerates content changes.
	writeTree(t, root, map[string][]byte{"p2.png": testutil.PNG(t, 2, 2)})
	src2, err := Open(context.Background(), root)
	require.NoError(t, err)
	defer src2.Close()

	key2, err := src2.FileKey()
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestDirSourceMissingPath(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, ErrCannotOpen)
}
