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

// writeNestedFixture builds book.cbz holding two image runs around a
// nested archive:
//
//	a1/p1.jpg, a1/p2.jpg, b-extra.cbz (b1.png, b2.png), c2/p1.jpg
func writeNestedFixture(t *testing.T, dir string) (path string, page, b1, b2 []byte) {
	t.Helper()

	page = testutil.JPEG(t, 3, 3)
	b1 = testutil.PNG(t, 2, 2)
	b2 = testutil.PNG(t, 4, 4)
	inner := testutil.ZipBytes(t, []testutil.ZipEntry{
		{Name: "b1.png", Data: b1},
		{Name: "b2.png", Data: b2},
	})

	path = filepath.Join(dir, "book.cbz")
	testutil.WriteZip(t, path, []testutil.ZipEntry{
		{Name: "a1/p1.jpg", Data: page},
		{Name: "a1/p2.jpg", Data: page},
		{Name: "b-extra.cbz", Data: inner},
		{Name: "c2/p1.jpg", Data: page},
	})
	return path, page, b1, b2
}

func TestCompositeNestedArchive(t *testing.T) {
	dir := t.TempDir()
	path, _, b1, _ := writeNestedFixture(t, dir)

	tempDir := filepath.Join(dir, "tmp")
	require.NoError(t, os.Mkdir(tempDir, 0o755))

	src, err := Open(context.Background(), path, WithTempDir(tempDir))
	require.NoError(t, err)

	comp, ok := src.(*CompositeImageSource)
	require.True(t, ok, "nested archive must produce a composite")

	// Parent run, nested archive, parent run.
	segs := comp.Segments()
	require.Len(t, segs, 3)
	assert.Equal(t, "book", segs[0].Name())
	assert.Equal(t, "b-extra", segs[1].Name())
	assert.Equal(t, "book", segs[2].Name())
	assert.Equal(t, 2, segs[0].Source().Count())
	assert.Equal(t, 2, segs[1].Source().Count())
	assert.Equal(t, 1, segs[2].Source().Count())

	// Global order: the nested archive's contents substitute in place.
	require.Equal(t, 5, comp.Count())
	var names []string
	for i := 0; i < comp.Count(); i++ {
		name, err := comp.FileName(i)
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"p1.jpg", "p2.jpg", "b1.png", "b2.png", "p1.jpg"}, names)

	rel, err := comp.RelativePath(2)
	require.NoError(t, err)
	assert.Equal(t, "b1.png", rel)
	rel, err = comp.RelativePath(4)
	require.NoError(t, err)
	assert.Equal(t, "c2/p1.jpg", rel)

	key, err := comp.ImageFileKey(2)
	require.NoError(t, err)
	assert.Equal(t, keyForBytes(b1), key)

	dim, err := comp.ImageSize(3)
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 4, Height: 4}, dim)

	_, err = comp.FileName(5)
	assert.ErrorIs(t, err, ErrNotFound)

	// The nested archive lives in exactly one owned temp file until the
	// composite is closed.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, comp.Close())
	entries, err = os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "closing the composite must delete owned temp files")
}

func TestCompositeBadNestedArchiveSkipped(t *testing.T) {
	dir := t.TempDir()
	tempDir := filepath.Join(dir, "tmp")
	require.NoError(t, os.Mkdir(tempDir, 0o755))

	page := testutil.PNG(t, 2, 2)
	path := filepath.Join(dir, "book.cbz")
	testutil.WriteZip(t, path, []testutil.ZipEntry{
		{Name: "good1.png", Data: page},
		{Name: "good2.png", Data: page},
		{Name: "zbroken.cbz", Data: []byte("not actually a zip")},
	})

	src, err := Open(context.Background(), path, WithTempDir(tempDir))
	require.NoError(t, err, "one bad nested archive must not abort the open")
	defer src.Close()

	assert.Equal(t, 2, src.Count())

	// The failed nested archive's temp file must not leak.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompositeRecursionBound(t *testing.T) {
	dir := t.TempDir()

	deep := testutil.ZipBytes(t, []testutil.ZipEntry{
		{Name: "d1.png", Data: testutil.PNG(t, 2, 2)},
	})
	mid := testutil.ZipBytes(t, []testutil.ZipEntry{
		{Name: "m1.png", Data: testutil.PNG(t, 2, 2)},
		{Name: "zdeep.cbz", Data: deep},
	})
	path := filepath.Join(dir, "book.cbz")
	testutil.WriteZip(t, path, []testutil.ZipEntry{
		{Name: "a.png", Data: testutil.PNG(t, 2, 2)},
		{Name: "mid.cbz", Data: mid},
	})

	src, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer src.Close()

	// The archive nested two levels down is served by a plain reader and
	// not flattened further: only a.png and m1.png are paged.
	assert.Equal(t, 2, src.Count())
}

func TestDirectorySegmentation(t *testing.T) {
	page := testutil.PNG(t, 2, 2)

	t.Run("multiple directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.cbz")
		testutil.WriteZip(t, path, []testutil.ZipEntry{
			{Name: "ch2/p1.jpg", Data: page},
			{Name: "ch1/p1.jpg", Data: page},
			{Name: "ch1/p2.jpg", Data: page},
		})

		src, err := Open(context.Background(), path)
		require.NoError(t, err)
		defer src.Close()

		comp, ok := src.(*CompositeImageSource)
		require.True(t, ok)

		segs := comp.Segments()
		require.Len(t, segs, 2)
		assert.Equal(t, "ch1", segs[0].Name())
		assert.Equal(t, "ch2", segs[1].Name())
		assert.Equal(t, 2, segs[0].Source().Count())
		assert.Equal(t, 1, segs[1].Source().Count())
		assert.Equal(t, 3, comp.Count())
	})

	t.Run("single directory stays plain", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.cbz")
		testutil.WriteZip(t, path, []testutil.ZipEntry{
			{Name: "ch1/p1.jpg", Data: page},
			{Name: "ch1/p2.jpg", Data: page},
		})

		src, err := Open(context.Background(), path)
		require.NoError(t, err)
		defer src.Close()

		_, isComposite := src.(*CompositeImageSource)
		assert.False(t, isComposite, "a single directory needs no segmentation")
	})
}

func TestOpenPhases(t *testing.T) {
	dir := t.TempDir()

	t.Run("flat container", func(t *testing.T) {
		path := filepath.Join(dir, "flat.cbz")
		testutil.WriteZip(t, path, []testutil.ZipEntry{
			{Name: "p1.png", Data: testutil.PNG(t, 2, 2)},
		})

		var phases []Phase
		src, err := Open(context.Background(), path, WithPhaseFunc(func(p Phase) {
			phases = append(phases, p)
		}))
		require.NoError(t, err)
		defer src.Close()

		assert.Equal(t, []Phase{PhaseOpening, PhaseBuildingList, PhaseDone}, phases)
	})

	t.Run("nested container extracts", func(t *testing.T) {
		path, _, _, _ := writeNestedFixture(t, dir)

		var phases []Phase
		src, err := Open(context.Background(), path, WithPhaseFunc(func(p Phase) {
			phases = append(phases, p)
		}))
		require.NoError(t, err)
		defer src.Close()

		assert.Equal(t, []Phase{PhaseOpening, PhaseBuildingList, PhaseExtracting, PhaseDone}, phases)
	})
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "opening", PhaseOpening.String())
	assert.Equal(t, "building image list", PhaseBuildingList.String())
	assert.Equal(t, "extracting", PhaseExtracting.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "unknown", Phase(255).String())
}
