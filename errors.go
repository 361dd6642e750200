package regio

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when operating on a closed region.
	ErrClosed = errors.New("regio: region is closed")
	// ErrReadOnly is returned when mutating a read-only region.
	ErrReadOnly = errors.New("regio: region is read-only")
	// ErrNilRegion is returned when an operation requires a region and got nil.
	ErrNilRegion = errors.New("regio: nil region")
	// ErrRegionMismatch is returned when a handle from one region is assigned
	// into an object owned by a different region.
	ErrRegionMismatch = errors.New("regio: handle belongs to a different region")
	// ErrNotMapped is returned when a file-only operation (flush, grow) is
	// invoked on a heap-backed region.
	ErrNotMapped = errors.New("regio: region is not file-backed")
	// ErrEmpty is returned when removing from an empty container.
	ErrEmpty = errors.New("regio: container is empty")
)

// OutOfSpaceError indicates a bump allocation beyond the region's free
// capacity. The allocation is fatal to the call; previously allocated data
// is untouched.
type OutOfSpaceError struct {
	Size  int
	Align int
	Free  uint64
}

func (e *OutOfSpaceError) Error() string {
	return fmt.Sprintf("regio: out of space: need %d bytes (align %d), %d free", e.Size, e.Align, e.Free)
}

// TypeMismatchError indicates that a region's stored root type identity
// differs from the one the caller expected. This is a data compatibility
// problem, not an I/O problem: the region was written for another schema.
type TypeMismatchError struct {
	Stored   TypeID
	Expected TypeID
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("regio: root type mismatch: stored %s, expected %s", e.Stored, e.Expected)
}

// BoundsError indicates an address or offset outside the region's span.
// This is a programmer error; the library does not recover from it.
type BoundsError struct {
	Offset uint64
	Size   uint64
	Span   uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("regio: out of bounds: [%d, %d) outside region span %d", e.Offset, e.Offset+e.Size, e.Span)
}

// IndexError indicates an out-of-range container index.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("regio: index %d out of range with length %d", e.Index, e.Len)
}
