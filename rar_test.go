package comicsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RAR archives cannot be produced in-process (no Go encoder exists), so
// these tests cover dispatch and failure paths; the shared
// classification, ordering, and composite logic is exercised end to end
// through the ZIP reader.

func TestOpenRarGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cbr")
	require.NoError(t, os.WriteFile(path, []byte("not a rar archive"), 0o644))

	_, err := Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrCannotOpen)
}

func TestOpenRarMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent.rar"))
	assert.ErrorIs(t, err, ErrCannotOpen)
}

func TestRarPasswordFlagging(t *testing.T) {
	t.Run("no password means locked", func(t *testing.T) {
		r := &rarReader{}
		r.flagPasswordFailure()
		assert.True(t, r.NeedsPassword())
		assert.False(t, r.WrongPassword())
		assert.True(t, r.HasEncryptedEntries())
		assert.Equal(t, 0, r.Count())
	})

	t.Run("with password means rejected", func(t *testing.T) {
		r := &rarReader{password: "tried"}
		r.flagPasswordFailure()
		assert.False(t, r.NeedsPassword())
		assert.True(t, r.WrongPassword())
	})
}

func TestRarPath(t *testing.T) {
	assert.Equal(t, "ch1/p1.jpg", rarPath(`ch1\p1.jpg`))
	assert.Equal(t, "p1.jpg", rarPath("p1.jpg"))
}
