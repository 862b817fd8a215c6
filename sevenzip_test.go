package comicsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 7z archives cannot be produced in-process (the decompression library
// is read-only), so these tests cover dispatch, failure classification,
// and the cache-only extract contract.

func TestOpenSevenZipGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cb7")
	require.NoError(t, os.WriteFile(path, []byte("not a 7z archive"), 0o644))

	_, err := Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrCannotOpen)
}

func TestOpenSevenZipMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent.7z"))
	assert.ErrorIs(t, err, ErrCannotOpen)
}

func TestSevenZipEagerFailureClassification(t *testing.T) {
	t.Run("unsupported method is terminal", func(t *testing.T) {
		r := &sevenZipReader{password: "pw"}
		_, err := r.eagerFailure("x.png", errors.New("sevenzip: unsupported compression method"))
		assert.ErrorIs(t, err, ErrUnsupportedCompression)
	})

	t.Run("password failure sets flags", func(t *testing.T) {
		r := &sevenZipReader{}
		r.cache = map[string][]byte{"x.png": {1}}
		got, err := r.eagerFailure("x.png", errors.New("decrypt: password invalid"))
		require.NoError(t, err)
		assert.True(t, got.NeedsPassword())
		assert.Empty(t, got.cache, "a locked container must not retain partial data")
	})

	t.Run("other errors are terminal", func(t *testing.T) {
		r := &sevenZipReader{}
		_, err := r.eagerFailure("x.png", errors.New("corrupt stream"))
		assert.ErrorIs(t, err, ErrCannotOpen)
	})
}

func TestSevenZipCacheOnlyExtract(t *testing.T) {
	r := &sevenZipReader{}
	_, err := r.cacheOnly("missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
