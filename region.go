package regio

import (
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/hupe1980/regio/internal/conv"
	"github.com/hupe1980/regio/internal/fs"
	"github.com/hupe1980/regio/internal/mmap"
)

// Region is a contiguous, bump-allocated memory block owning a typed root
// object and every object reachable from it. The block starts with a fixed
// header; the root follows immediately; allocations grow the occupation mark
// from there. Nothing inside a region is ever freed individually.
//
// A Region is either heap-backed (Create, FromBytes, Clone) or file-backed
// (CreateFile, OpenFile, OpenFileReadOnly). All mutating operations must be
// externally serialized by the caller.
type Region struct {
	data []byte
	hdr  *header

	// heapBlock pins the heap allocation backing data (heap regions only).
	heapBlock []uint64

	// File backing (nil for heap regions).
	mapping *mmap.Mapping
	file    fs.File
	fsys    fs.FileSystem
	path    string
	dirty   *pageTracker

	readonly  bool
	closed    bool
	constrict bool
	namedType bool

	logger  *Logger
	metrics MetricsCollector
}

// Create allocates a fresh heap-backed region for root type R with reserve
// bytes of free capacity beyond the header and root, constructs the zeroed
// root in place, and returns the region. The caller frees everything at once
// with Close (typically deferred).
func Create[R any](reserve int, opts ...Option) (*Region, error) {
	if reserve < 0 {
		return nil, fmt.Errorf("regio: negative reserve %d", reserve)
	}

	o := applyOptions(opts)
	id, named := o.rootType(TypeOf[R]())
	rootSize, rootAlign := sizeAlign[R]()

	total := HeaderSize + alignUp(uint64(rootSize), uint64(rootAlign))
	reserveU, err := conv.IntToUint64(reserve)
	if err != nil {
		return nil, err
	}
	total += reserveU

	totalInt, err := conv.Uint64ToInt(total)
	if err != nil {
		return nil, err
	}

	// Backing is allocated as []uint64 so the base address is 8-aligned;
	// all interior alignment is then pure offset arithmetic.
	block := make([]uint64, (totalInt+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&block[0])), totalInt)

	r := &Region{
		data:      data,
		heapBlock: block,
		namedType: named,
		logger:    o.logger,
		metrics:   o.metrics,
	}
	r.hdr = (*header)(unsafe.Pointer(&data[0]))

	if err := r.format(id, rootSize, rootAlign); err != nil {
		return nil, err
	}
	registerRegion(r)

	r.logger.Debug("region created",
		"type", id.String(),
		"capacity", total,
	)

	return r, nil
}

// FromBytes adopts an existing region image, typically the byte copy of
// another region or a snapshot read back from storage, and reinterprets it
// as a live region for root type R. This is the relocation path: every
// internal reference resolves at the new base without rewriting.
//
// The image is validated (magic, version, root type identity, header
// consistency) before anything is touched. The region takes ownership of
// data; the free capacity becomes len(data) minus the recorded occupation.
// If data is not 8-byte aligned it is copied into an aligned block first.
func FromBytes[R any](data []byte, opts ...Option) (*Region, error) {
	o := applyOptions(opts)
	id, named := o.rootType(TypeOf[R]())

	if err := validateImage(data, id); err != nil {
		return nil, err
	}

	r := &Region{
		namedType: named,
		logger:    o.logger,
		metrics:   o.metrics,
	}

	if uintptr(unsafe.Pointer(&data[0]))%maxAlign != 0 {
		block := make([]uint64, (len(data)+7)/8)
		aligned := unsafe.Slice((*byte)(unsafe.Pointer(&block[0])), len(data))
		copy(aligned, data)
		r.heapBlock = block
		data = aligned
	}

	r.data = data
	r.hdr = (*header)(unsafe.Pointer(&data[0]))
	r.hdr.Capacity = uint64(len(data))
	registerRegion(r)

	return r, nil
}

// Clone copies the occupied prefix of the region into a fresh heap-backed
// region with the same capacity. The clone shares nothing with the source.
func (r *Region) Clone(opts ...Option) (*Region, error) {
	if r.data == nil {
		return nil, ErrClosed
	}

	o := applyOptions(opts)

	capInt, err := conv.Uint64ToInt(r.hdr.Capacity)
	if err != nil {
		return nil, err
	}
	block := make([]uint64, (capInt+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&block[0])), capInt)
	copy(data, r.data[:r.hdr.Occupied])

	c := &Region{
		data:      data,
		heapBlock: block,
		hdr:       (*header)(unsafe.Pointer(&data[0])),
		namedType: r.namedType,
		logger:    o.logger,
		metrics:   o.metrics,
	}
	c.hdr.Capacity = uint64(capInt)
	registerRegion(c)

	return c, nil
}

// format initializes the header and constructs the zeroed root in place.
func (r *Region) format(id TypeID, rootSize, rootAlign int) error {
	*r.hdr = header{
		Magic:    MagicNumber,
		Version:  FormatVersion,
		TypeHi:   id.Hi,
		TypeLo:   id.Lo,
		Capacity: uint64(len(r.data)),
		Occupied: HeaderSize,
	}

	if rootSize == 0 {
		rootSize = 1
	}
	rootOff, err := r.Alloc(rootSize, rootAlign)
	if err != nil {
		return err
	}
	r.hdr.RootOff = rootOff

	return nil
}

// Alloc bump-allocates size bytes at the given alignment and returns the
// absolute offset of the new block. It fails with OutOfSpaceError when the
// request exceeds free capacity; it never searches for reusable space and
// never shrinks. The returned memory is zeroed.
func (r *Region) Alloc(size, align int) (uint64, error) {
	if err := r.writable(); err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("regio: invalid allocation size %d", size)
	}
	if align <= 0 || align > maxAlign || bits.OnesCount(uint(align)) != 1 {
		return 0, fmt.Errorf("regio: invalid alignment %d", align)
	}

	sizeU, err := conv.IntToUint64(size)
	if err != nil {
		return 0, err
	}

	off := alignUp(r.hdr.Occupied, uint64(align))
	end := off + sizeU
	if end > r.hdr.Capacity {
		err := &OutOfSpaceError{Size: size, Align: align, Free: r.hdr.Capacity - r.hdr.Occupied}
		r.metrics.RecordAlloc(size, err)
		return 0, err
	}

	r.hdr.Occupied = end
	r.markDirty(0, HeaderSize)
	r.markDirty(off, sizeU)
	r.metrics.RecordAlloc(size, nil)

	return off, nil
}

// Capacity returns the region's total capacity in bytes.
func (r *Region) Capacity() uint64 {
	if r.data == nil {
		return 0
	}
	return r.hdr.Capacity
}

// Occupied returns the high-water allocation mark in bytes (header included).
func (r *Region) Occupied() uint64 {
	if r.data == nil {
		return 0
	}
	return r.hdr.Occupied
}

// Free returns the unallocated capacity in bytes.
func (r *Region) Free() uint64 {
	if r.data == nil {
		return 0
	}
	return r.hdr.Capacity - r.hdr.Occupied
}

// TypeID returns the stored root type identity.
func (r *Region) TypeID() TypeID {
	if r.data == nil {
		return TypeID{}
	}
	return TypeID{Hi: r.hdr.TypeHi, Lo: r.hdr.TypeLo}
}

// ReadOnly reports whether the region rejects mutation.
func (r *Region) ReadOnly() bool {
	return r.readonly
}

// Image returns a read-only view of the occupied prefix of the region: the
// exact bytes that FromBytes accepts. The slice aliases the live region and
// is invalidated by any further mutation, growth, or Close.
func (r *Region) Image() []byte {
	if r.data == nil {
		return nil
	}
	return r.data[:r.hdr.Occupied]
}

// Close releases the whole region at once. Heap regions drop their block;
// file-backed regions flush, optionally constrict, unmap and close (see
// file.go). Close is idempotent.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	unregisterRegion(r)

	if r.mapping != nil {
		return r.closeFile()
	}

	r.data = nil
	r.hdr = nil
	r.heapBlock = nil
	r.dirty = nil

	// A failed grow unmaps before it errors, which can leave the file open
	// with no mapping. The descriptor is still ours to release.
	if r.file != nil {
		f := r.file
		r.file = nil
		if err := f.Close(); err != nil {
			return fmt.Errorf("close region file: %w", err)
		}
	}

	return nil
}

func (r *Region) writable() error {
	if r == nil {
		return ErrNilRegion
	}
	if r.closed || r.data == nil {
		return ErrClosed
	}
	if r.readonly {
		return ErrReadOnly
	}
	return nil
}

func (r *Region) base() unsafe.Pointer {
	return unsafe.Pointer(&r.data[0])
}

func (r *Region) pointer(off uint64) unsafe.Pointer {
	return unsafe.Add(r.base(), off)
}

func (r *Region) offsetOf(p unsafe.Pointer) uint64 {
	return uint64(uintptr(p) - uintptr(r.base()))
}

// checkSpan validates that [p, p+size) lies inside the region.
func (r *Region) checkSpan(p unsafe.Pointer, size uintptr) error {
	start := uintptr(p)
	base := uintptr(r.base())
	if start < base || start+size > base+uintptr(len(r.data)) {
		return &BoundsError{Offset: uint64(start) - uint64(base), Size: uint64(size), Span: uint64(len(r.data))}
	}
	return nil
}

// noteWrite records a region-mediated store for partial flushing.
// Heap regions ignore it.
func (r *Region) noteWrite(p unsafe.Pointer, size uintptr) {
	if r.dirty == nil {
		return
	}
	r.markDirty(r.offsetOf(p), uint64(size))
}

func (r *Region) markDirty(off, size uint64) {
	if r.dirty == nil {
		return
	}
	r.dirty.mark(off, size)
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

func sizeAlign[T any]() (int, int) {
	var t T
	return int(unsafe.Sizeof(t)), int(unsafe.Alignof(t))
}

// Alloc allocates and zero-initializes a T inside rg, returning a handle to
// it. T must satisfy the package's residency rules (no Go pointers).
func Alloc[T any](rg *Region) (Handle[T], error) {
	if rg == nil {
		return Handle[T]{}, ErrNilRegion
	}
	size, align := sizeAlign[T]()
	off, err := rg.Alloc(size, align)
	if err != nil {
		return Handle[T]{}, err
	}
	return Handle[T]{rg: rg, off: off}, nil
}

// AllocWith allocates a T and initializes it in place via init before the
// handle escapes. This is the construct-in-place factory: the value is never
// copied into the region from outside.
func AllocWith[T any](rg *Region, init func(*T) error) (Handle[T], error) {
	h, err := Alloc[T](rg)
	if err != nil {
		return Handle[T]{}, err
	}
	if init != nil {
		if err := init(h.Get()); err != nil {
			return Handle[T]{}, err
		}
	}
	return h, nil
}

// AllocSlice allocates a zeroed contiguous run of n values of T and returns
// a handle to the first. The run is addressable via SliceOf.
func AllocSlice[T any](rg *Region, n int) (Handle[T], error) {
	if rg == nil {
		return Handle[T]{}, ErrNilRegion
	}
	if n <= 0 {
		return Handle[T]{}, fmt.Errorf("regio: invalid slice length %d", n)
	}
	size, align := sizeAlign[T]()
	off, err := rg.Alloc(size*n, align)
	if err != nil {
		return Handle[T]{}, err
	}
	return Handle[T]{rg: rg, off: off}, nil
}

// SliceOf returns the n-element view starting at h. The slice aliases region
// memory and is invalidated by growth or Close.
func SliceOf[T any](h Handle[T], n int) []T {
	p := h.Get()
	if p == nil {
		return nil
	}
	return unsafe.Slice(p, n)
}
