package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "data.bin")

	f, err := Default.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(128))
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	fi, err := Default.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, int64(128), fi.Size())
}

func TestFaultyFS_Rules(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)

	t.Run("fail on open", func(t *testing.T) {
		ffs.AddRule("noopen", Fault{FailOnOpen: true})
		_, err := ffs.OpenFile(filepath.Join(dir, "noopen.bin"), os.O_RDWR|os.O_CREATE, 0o644)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("fail on truncate", func(t *testing.T) {
		ffs.AddRule("notrunc", Fault{FailOnTruncate: true})
		f, err := ffs.OpenFile(filepath.Join(dir, "notrunc.bin"), os.O_RDWR|os.O_CREATE, 0o644)
		require.NoError(t, err)
		defer f.Close()

		assert.ErrorIs(t, f.Truncate(64), ErrInjected)
	})

	t.Run("fail on sync", func(t *testing.T) {
		ffs.AddRule("nosync", Fault{FailOnSync: true})
		f, err := ffs.OpenFile(filepath.Join(dir, "nosync.bin"), os.O_RDWR|os.O_CREATE, 0o644)
		require.NoError(t, err)
		defer f.Close()

		assert.ErrorIs(t, f.Sync(), ErrInjected)
	})

	t.Run("unmatched files pass through", func(t *testing.T) {
		f, err := ffs.OpenFile(filepath.Join(dir, "plain.bin"), os.O_RDWR|os.O_CREATE, 0o644)
		require.NoError(t, err)
		assert.NoError(t, f.Sync())
		assert.NoError(t, f.Close())
	})

	t.Run("rules apply to already open files", func(t *testing.T) {
		f, err := ffs.OpenFile(filepath.Join(dir, "late.bin"), os.O_RDWR|os.O_CREATE, 0o644)
		require.NoError(t, err)
		defer f.Close()

		require.NoError(t, f.Truncate(16))
		ffs.AddRule("late", Fault{FailOnTruncate: true})
		assert.ErrorIs(t, f.Truncate(32), ErrInjected)
	})
}
