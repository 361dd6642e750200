package regio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type listRoot struct {
	a List[uint64]
	b List[uint64]
}

func listRegion(t *testing.T) (*Region, *listRoot) {
	t.Helper()

	rg, err := Create[listRoot](1 << 14)
	require.NoError(t, err)
	t.Cleanup(func() { rg.Close() })

	root, err := Root[listRoot](rg)
	require.NoError(t, err)
	return rg, root.Get()
}

func TestListPushFront(t *testing.T) {
	rg, root := listRegion(t)
	l := &root.a

	require.True(t, l.IsEmpty())
	require.Equal(t, 0, l.Len())

	_, err := l.Head()
	require.ErrorIs(t, err, ErrEmpty)
	_, err = l.Tail()
	require.ErrorIs(t, err, ErrEmpty)

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, l.PushFront(rg, i))
	}
	require.Equal(t, 5, l.Len())

	// Cons order: last pushed is first.
	want := uint64(5)
	for _, p := range l.All() {
		require.Equal(t, want, *p)
		want--
	}

	head, err := l.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(5), *head)
}

func TestListSharing(t *testing.T) {
	rg, root := listRegion(t)

	require.NoError(t, root.a.PushFront(rg, 1))
	require.NoError(t, root.a.PushFront(rg, 2))

	tail, err := root.a.Tail()
	require.NoError(t, err)
	require.Equal(t, 1, tail.Len())

	// Popping the front of a does not copy the shared suffix: the tail view
	// and the popped list resolve to the same cell.
	require.NoError(t, root.a.PopFront(rg))
	pa, err := root.a.Head()
	require.NoError(t, err)
	pb, err := tail.Head()
	require.NoError(t, err)
	require.Same(t, pa, pb)
}

func TestListPopFront(t *testing.T) {
	rg, root := listRegion(t)
	l := &root.a

	require.ErrorIs(t, l.PopFront(rg), ErrEmpty)

	require.NoError(t, l.PushFront(rg, 1))
	require.NoError(t, l.PushFront(rg, 2))

	require.NoError(t, l.PopFront(rg))
	head, err := l.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(1), *head)

	require.NoError(t, l.PopFront(rg))
	require.True(t, l.IsEmpty())

	// The wrong region is rejected before the list is touched.
	require.NoError(t, l.PushFront(rg, 3))
	other, err := Create[listRoot](1 << 12)
	require.NoError(t, err)
	defer other.Close()

	var be *BoundsError
	require.ErrorAs(t, l.PopFront(other), &be)
	require.Equal(t, 1, l.Len())
}

func TestListCompare(t *testing.T) {
	rg, root := listRegion(t)

	eq := func(x, y *uint64) bool { return *x == *y }
	cmp := func(x, y *uint64) int {
		switch {
		case *x < *y:
			return -1
		case *x > *y:
			return 1
		default:
			return 0
		}
	}

	require.True(t, root.a.Equal(&root.b, eq))
	require.Equal(t, 0, root.a.Compare(&root.b, cmp))

	for i := uint64(0); i < 4; i++ {
		require.NoError(t, root.a.PushFront(rg, i))
		require.NoError(t, root.b.PushFront(rg, i))
	}
	require.True(t, root.a.Equal(&root.b, eq))
	require.Equal(t, 0, root.a.Compare(&root.b, cmp))

	// Empty precedes non-empty; a shared prefix defers to length.
	require.NoError(t, root.b.PopFront(rg))
	require.False(t, root.a.Equal(&root.b, eq))
	require.Equal(t, 1, root.a.Compare(&root.b, cmp))
	require.Equal(t, -1, root.b.Compare(&root.a, cmp))

	// First unequal head decides.
	require.NoError(t, root.b.PushFront(rg, 99))
	require.Equal(t, -1, root.a.Compare(&root.b, cmp))
}

func TestListRelocation(t *testing.T) {
	rg, err := Create[listRoot](1 << 14)
	require.NoError(t, err)

	root, err := Root[listRoot](rg)
	require.NoError(t, err)
	for i := uint64(0); i < 50; i++ {
		require.NoError(t, root.Get().a.PushFront(rg, i))
	}

	img := append([]byte(nil), rg.Image()...)
	require.NoError(t, rg.Close())

	r2, err := FromBytes[listRoot](img)
	require.NoError(t, err)
	defer r2.Close()

	root2, err := Root[listRoot](r2)
	require.NoError(t, err)
	require.Equal(t, 50, root2.Get().a.Len())

	want := uint64(49)
	for _, p := range root2.Get().a.All() {
		require.Equal(t, want, *p)
		want--
	}
}
