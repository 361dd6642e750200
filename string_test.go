package regio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type strRoot struct {
	name StringRef
}

func TestString(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		rg, err := Create[strRoot](4096)
		require.NoError(t, err)
		defer rg.Close()

		h, err := NewString(rg, "hello, region")
		require.NoError(t, err)

		s := h.Get()
		require.Equal(t, 13, s.Len())
		require.Equal(t, "hello, region", s.String())
		require.Equal(t, []byte("hello, region"), s.Bytes())
	})

	t.Run("empty string", func(t *testing.T) {
		rg, err := Create[strRoot](4096)
		require.NoError(t, err)
		defer rg.Close()

		h, err := NewString(rg, "")
		require.NoError(t, err)

		s := h.Get()
		require.Equal(t, 0, s.Len())
		require.Equal(t, "", s.String())
		require.Nil(t, s.Bytes())
		require.True(t, s.EqualString(""))
	})

	t.Run("compare and equal", func(t *testing.T) {
		rg, err := Create[strRoot](4096)
		require.NoError(t, err)
		defer rg.Close()

		a, err := NewString(rg, "apple")
		require.NoError(t, err)
		b, err := NewString(rg, "banana")
		require.NoError(t, err)
		a2, err := NewString(rg, "apple")
		require.NoError(t, err)

		require.True(t, a.Get().Equal(a2.Get()))
		require.False(t, a.Get().Equal(b.Get()))

		require.Equal(t, 0, a.Get().Compare(a2.Get()))
		require.Negative(t, a.Get().Compare(b.Get()))
		require.Positive(t, b.Get().Compare(a.Get()))

		require.True(t, a.Get().EqualString("apple"))
		require.False(t, a.Get().EqualString("apples"))
		require.Negative(t, a.Get().CompareString("apricot"))
	})

	t.Run("relocation", func(t *testing.T) {
		rg, err := Create[strRoot](4096)
		require.NoError(t, err)

		root, err := Root[strRoot](rg)
		require.NoError(t, err)

		ref, err := NewStringRef(rg, "persistent value")
		require.NoError(t, err)
		root.Get().name = ref

		img := append([]byte(nil), rg.Image()...)
		require.NoError(t, rg.Close())

		r2, err := FromBytes[strRoot](img)
		require.NoError(t, err)
		defer r2.Close()

		root2, err := Root[strRoot](r2)
		require.NoError(t, err)
		require.Equal(t, "persistent value", root2.Get().name.In(r2).String())
	})
}
