package regio

import (
	"iter"
	"unsafe"
)

// vectorSegmentLen is the fixed element count per vector segment.
const vectorSegmentLen = 64

type vectorSegment[T any] struct {
	next  Rel[vectorSegment[T]]
	items [vectorSegmentLen]T
}

// Vector is a region-resident growable sequence backed by a singly linked
// chain of fixed-size segments. Elements never move when the vector grows,
// so interior pointers into it stay stable; segments are bump-allocated and
// never returned.
//
// The element type must be position independent: plain data, Off references,
// or region strings by StringRef. Types containing Rel fields must not be
// stored by value because erase shifts elements with plain assignment.
//
// The zero Vector is an empty vector ready for use. Like every region
// container it must itself live inside the region it allocates from.
type Vector[T any] struct {
	size     uint64
	first    Rel[vectorSegment[T]]
	last     Rel[vectorSegment[T]]
	segments uint32
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int {
	return int(v.size)
}

// Segments returns the number of allocated segments. Segments are retained
// across erase, so this only ever grows.
func (v *Vector[T]) Segments() int {
	return int(v.segments)
}

// at returns the slot for index i, which must be within the allocated
// segment chain. Lookup walks the chain from the front.
func (v *Vector[T]) at(i uint64) *T {
	seg := v.first.Get()
	for k := i / vectorSegmentLen; k > 0; k-- {
		seg = seg.next.Get()
	}
	return &seg.items[i%vectorSegmentLen]
}

// At returns a pointer to the i-th element.
func (v *Vector[T]) At(i int) (*T, error) {
	if i < 0 || uint64(i) >= v.size {
		return nil, &IndexError{Index: i, Len: int(v.size)}
	}
	return v.at(uint64(i)), nil
}

// Front returns a pointer to the first element in constant time.
func (v *Vector[T]) Front() (*T, error) {
	if v.size == 0 {
		return nil, ErrEmpty
	}
	return &v.first.Get().items[0], nil
}

// Back returns a pointer to the last element. Like At, this walks the
// segment chain.
func (v *Vector[T]) Back() (*T, error) {
	if v.size == 0 {
		return nil, ErrEmpty
	}
	return v.at(v.size - 1), nil
}

// EmplaceBack appends a zeroed element and returns a pointer to it for
// in-place construction. A new segment is allocated first when the chain is
// full; allocation failure leaves the vector unchanged.
func (v *Vector[T]) EmplaceBack(rg *Region) (*T, error) {
	if err := rg.writable(); err != nil {
		return nil, err
	}
	if err := rg.checkSpan(unsafe.Pointer(v), unsafe.Sizeof(*v)); err != nil {
		return nil, err
	}

	if v.size == uint64(v.segments)*vectorSegmentLen {
		seg, err := Alloc[vectorSegment[T]](rg)
		if err != nil {
			return nil, err
		}
		p := seg.Get()
		if prev := v.last.Get(); prev != nil {
			prev.next.set(p)
			rg.noteWrite(unsafe.Pointer(&prev.next), unsafe.Sizeof(prev.next))
		} else {
			v.first.set(p)
		}
		v.last.set(p)
		v.segments++
	}

	slot := v.at(v.size)
	v.size++
	rg.noteWrite(unsafe.Pointer(v), unsafe.Sizeof(*v))
	rg.noteWrite(unsafe.Pointer(slot), unsafe.Sizeof(*slot))

	return slot, nil
}

// PushBack appends a copy of val.
func (v *Vector[T]) PushBack(rg *Region, val T) error {
	slot, err := v.EmplaceBack(rg)
	if err != nil {
		return err
	}
	*slot = val
	return nil
}

// Reserve pre-allocates trailing segments so that minCap elements fit
// without further allocation.
func (v *Vector[T]) Reserve(rg *Region, minCap int) error {
	if err := rg.writable(); err != nil {
		return err
	}
	if err := rg.checkSpan(unsafe.Pointer(v), unsafe.Sizeof(*v)); err != nil {
		return err
	}

	for uint64(v.segments)*vectorSegmentLen < uint64(minCap) {
		seg, err := Alloc[vectorSegment[T]](rg)
		if err != nil {
			return err
		}
		p := seg.Get()
		if prev := v.last.Get(); prev != nil {
			prev.next.set(p)
			rg.noteWrite(unsafe.Pointer(&prev.next), unsafe.Sizeof(prev.next))
		} else {
			v.first.set(p)
		}
		v.last.set(p)
		v.segments++
	}
	rg.noteWrite(unsafe.Pointer(v), unsafe.Sizeof(*v))

	return nil
}

// PopBack removes the last element, zeroing its slot. The segment stays
// allocated for reuse.
func (v *Vector[T]) PopBack(rg *Region) error {
	if err := rg.writable(); err != nil {
		return err
	}
	if err := rg.checkSpan(unsafe.Pointer(v), unsafe.Sizeof(*v)); err != nil {
		return err
	}
	if v.size == 0 {
		return ErrEmpty
	}

	var zero T
	last := v.at(v.size - 1)
	*last = zero
	rg.noteWrite(unsafe.Pointer(last), unsafe.Sizeof(*last))

	v.size--
	rg.noteWrite(unsafe.Pointer(v), unsafe.Sizeof(*v))

	return nil
}

// EraseAt removes the i-th element in constant time by moving the last
// element into its slot. This does NOT preserve relative order; use a
// different structure when removal must keep order.
func (v *Vector[T]) EraseAt(rg *Region, i int) error {
	if err := rg.writable(); err != nil {
		return err
	}
	if err := rg.checkSpan(unsafe.Pointer(v), unsafe.Sizeof(*v)); err != nil {
		return err
	}
	if i < 0 || uint64(i) >= v.size {
		return &IndexError{Index: i, Len: int(v.size)}
	}

	last := v.at(v.size - 1)
	if uint64(i) != v.size-1 {
		dst := v.at(uint64(i))
		*dst = *last
		rg.noteWrite(unsafe.Pointer(dst), unsafe.Sizeof(*dst))
	}

	var zero T
	*last = zero
	rg.noteWrite(unsafe.Pointer(last), unsafe.Sizeof(*last))

	v.size--
	rg.noteWrite(unsafe.Pointer(v), unsafe.Sizeof(*v))

	return nil
}

// Clear resets the length to zero. Allocated segments are retained and their
// slots are zeroed so no stale references linger.
func (v *Vector[T]) Clear(rg *Region) error {
	if err := rg.writable(); err != nil {
		return err
	}
	if err := rg.checkSpan(unsafe.Pointer(v), unsafe.Sizeof(*v)); err != nil {
		return err
	}

	var zero T
	for seg := v.first.Get(); seg != nil; seg = seg.next.Get() {
		for j := range seg.items {
			seg.items[j] = zero
		}
		rg.noteWrite(unsafe.Pointer(&seg.items), unsafe.Sizeof(seg.items))
	}
	v.size = 0
	rg.noteWrite(unsafe.Pointer(v), unsafe.Sizeof(*v))

	return nil
}

// Equal reports whether two vectors hold equal elements in order, compared
// by eq. The vectors may live in different regions.
func (v *Vector[T]) Equal(o *Vector[T], eq func(*T, *T) bool) bool {
	if v.size != o.size {
		return false
	}
	for i, p := range v.All() {
		if !eq(p, o.at(uint64(i))) {
			return false
		}
	}
	return true
}

// Compare three-way compares two vectors: elements pairwise by cmp, then by
// length.
func (v *Vector[T]) Compare(o *Vector[T], cmp func(*T, *T) int) int {
	n := v.size
	if o.size < n {
		n = o.size
	}
	for i := uint64(0); i < n; i++ {
		if c := cmp(v.at(i), o.at(i)); c != 0 {
			return c
		}
	}
	switch {
	case v.size < o.size:
		return -1
	case v.size > o.size:
		return 1
	default:
		return 0
	}
}

// All iterates elements in index order. Iteration walks each segment once,
// so a full pass is linear even though random access is not.
func (v *Vector[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		i := uint64(0)
		for seg := v.first.Get(); seg != nil; seg = seg.next.Get() {
			for j := 0; j < vectorSegmentLen && i < v.size; j++ {
				if !yield(int(i), &seg.items[j]) {
					return
				}
				i++
			}
		}
	}
}
