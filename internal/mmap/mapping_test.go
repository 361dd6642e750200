package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempFile(t *testing.T, size int64) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), "mapping.bin"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))

	t.Cleanup(func() { _ = f.Close() })

	return f
}

func TestMap_ReadOnly(t *testing.T) {
	f := newTempFile(t, 4096)
	_, err := f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)

	m, err := Map(f.Fd(), 4096, false)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 4096, m.Size())
	assert.False(t, m.Writable())
	assert.Equal(t, []byte("hello"), m.Bytes()[:5])
}

func TestMap_Writable(t *testing.T) {
	f := newTempFile(t, 4096)

	m, err := Map(f.Fd(), 4096, true)
	require.NoError(t, err)

	copy(m.Bytes(), "persisted")
	require.NoError(t, m.Flush())
	require.NoError(t, m.Close())

	buf := make([]byte, 9)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), buf)
}

func TestMap_FlushRange(t *testing.T) {
	f := newTempFile(t, 3*4096)

	m, err := Map(f.Fd(), 3*4096, true)
	require.NoError(t, err)
	defer m.Close()

	copy(m.Bytes()[4100:], "middle")
	require.NoError(t, m.FlushRange(4100, 6))

	t.Run("out of bounds", func(t *testing.T) {
		assert.ErrorIs(t, m.FlushRange(2*4096, 2*4096), ErrOutOfBounds)
	})

	t.Run("empty range", func(t *testing.T) {
		assert.NoError(t, m.FlushRange(0, 0))
	})
}

func TestMap_Errors(t *testing.T) {
	t.Run("invalid size", func(t *testing.T) {
		f := newTempFile(t, 0)
		_, err := Map(f.Fd(), 0, false)
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("flush read-only", func(t *testing.T) {
		f := newTempFile(t, 4096)
		m, err := Map(f.Fd(), 4096, false)
		require.NoError(t, err)
		defer m.Close()

		assert.ErrorIs(t, m.Flush(), ErrReadOnly)
	})

	t.Run("use after close", func(t *testing.T) {
		f := newTempFile(t, 4096)
		m, err := Map(f.Fd(), 4096, true)
		require.NoError(t, err)

		require.NoError(t, m.Close())
		require.NoError(t, m.Close()) // idempotent

		assert.Nil(t, m.Bytes())
		assert.ErrorIs(t, m.Flush(), ErrClosed)
	})
}
