package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	path := "/library/comics/volume 1.cbz"
	key := Key(path)

	assert.Len(t, key, keyLen)
	assert.Equal(t, key, Key(path), "key must be deterministic")
	assert.NotContains(t, key, "/", "raw path must not leak into the key")
	assert.False(t, strings.Contains(key, "volume"))
	assert.NotEqual(t, key, Key("/library/comics/volume 2.cbz"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get("/a.cbz")
	assert.False(t, ok)

	require.NoError(t, s.Save("/a.cbz", "hunter2"))
	got, ok := s.Get("/a.cbz")
	assert.True(t, ok)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, s.Save("/a.cbz", "replaced"))
	got, _ = s.Get("/a.cbz")
	assert.Equal(t, "replaced", got)

	require.NoError(t, s.Delete("/a.cbz"))
	_, ok = s.Get("/a.cbz")
	assert.False(t, ok)

	// Deleting an absent entry is not an error.
	require.NoError(t, s.Delete("/never-saved.cbz"))
}
