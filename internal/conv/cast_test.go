//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToUint64(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := IntToUint64(123)
		assert.NoError(t, err)
		assert.Equal(t, uint64(123), got)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := IntToUint64(-1)
		assert.Error(t, err)
	})
}

func TestUint64ToInt(t *testing.T) {
	t.Run("valid max", func(t *testing.T) {
		got, err := Uint64ToInt(uint64(math.MaxInt64))
		assert.NoError(t, err)
		assert.Equal(t, math.MaxInt, got)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Uint64ToInt(math.MaxUint64)
		assert.Error(t, err)
	})
}

func TestUint64ToInt64(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		_, err := Uint64ToInt64(uint64(math.MaxInt64) + 1)
		assert.Error(t, err)
	})
}

func TestIntToInt32(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := IntToInt32(-42)
		assert.NoError(t, err)
		assert.Equal(t, int32(-42), got)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := IntToInt32(math.MaxInt32 + 1)
		assert.Error(t, err)
	})
}
