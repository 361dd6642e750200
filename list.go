package regio

import (
	"iter"
	"unsafe"
)

type listCell[T any] struct {
	value T
	tail  List[T]
}

// List is a region-resident singly linked cons list. Prepending allocates a
// cell in front of the existing chain, so lists share structure: two lists
// built from a common tail reference the same cells. Cells are immutable by
// convention once linked; popped cells stay allocated.
//
// The element type must be position independent (see Vector). The zero List
// is the empty list.
type List[T any] struct {
	head Rel[listCell[T]]
}

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool {
	return l.head.IsNil()
}

// Len counts the elements by walking the chain.
func (l *List[T]) Len() int {
	n := 0
	for c := l.head.Get(); c != nil; c = c.tail.head.Get() {
		n++
	}
	return n
}

// EmplaceFront prepends a zeroed element and returns a pointer to it for
// in-place construction. Allocation failure leaves the list unchanged.
func (l *List[T]) EmplaceFront(rg *Region) (*T, error) {
	if err := rg.writable(); err != nil {
		return nil, err
	}
	if err := rg.checkSpan(unsafe.Pointer(l), unsafe.Sizeof(*l)); err != nil {
		return nil, err
	}

	cell, err := Alloc[listCell[T]](rg)
	if err != nil {
		return nil, err
	}

	c := cell.Get()
	c.tail.head.set(l.head.Get())
	l.head.set(c)
	rg.noteWrite(unsafe.Pointer(c), unsafe.Sizeof(*c))
	rg.noteWrite(unsafe.Pointer(l), unsafe.Sizeof(*l))

	return &c.value, nil
}

// PushFront prepends a copy of val.
func (l *List[T]) PushFront(rg *Region, val T) error {
	slot, err := l.EmplaceFront(rg)
	if err != nil {
		return err
	}
	*slot = val
	return nil
}

// Head returns a pointer to the first element.
func (l *List[T]) Head() (*T, error) {
	c := l.head.Get()
	if c == nil {
		return nil, ErrEmpty
	}
	return &c.value, nil
}

// Tail returns the list without its first element. The returned pointer
// aliases the cell inside the region; it shares all cells with l.
func (l *List[T]) Tail() (*List[T], error) {
	c := l.head.Get()
	if c == nil {
		return nil, ErrEmpty
	}
	return &c.tail, nil
}

// PopFront detaches the first element. The cell is abandoned in place; other
// lists sharing it keep it alive semantically, the region keeps it either
// way.
func (l *List[T]) PopFront(rg *Region) error {
	if err := rg.writable(); err != nil {
		return err
	}
	if err := rg.checkSpan(unsafe.Pointer(l), unsafe.Sizeof(*l)); err != nil {
		return err
	}
	c := l.head.Get()
	if c == nil {
		return ErrEmpty
	}
	l.head.set(c.tail.head.Get())
	rg.noteWrite(unsafe.Pointer(l), unsafe.Sizeof(*l))
	return nil
}

// All iterates elements front to back.
func (l *List[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		i := 0
		for c := l.head.Get(); c != nil; c = c.tail.head.Get() {
			if !yield(i, &c.value) {
				return
			}
			i++
		}
	}
}

// Equal reports whether two lists hold equal elements in order, compared by
// eq. The lists may live in different regions.
func (l *List[T]) Equal(o *List[T], eq func(*T, *T) bool) bool {
	ca, cb := l.head.Get(), o.head.Get()
	for ca != nil && cb != nil {
		if !eq(&ca.value, &cb.value) {
			return false
		}
		ca, cb = ca.tail.head.Get(), cb.tail.head.Get()
	}
	return ca == nil && cb == nil
}

// Compare three-way compares two lists head to head by cmp, stopping at the
// first unequal pair. The empty list precedes any non-empty list.
func (l *List[T]) Compare(o *List[T], cmp func(*T, *T) int) int {
	ca, cb := l.head.Get(), o.head.Get()
	for ca != nil && cb != nil {
		if c := cmp(&ca.value, &cb.value); c != 0 {
			return c
		}
		ca, cb = ca.tail.head.Get(), cb.tail.head.Get()
	}
	switch {
	case ca == nil && cb == nil:
		return 0
	case ca == nil:
		return -1
	default:
		return 1
	}
}
