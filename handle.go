package regio

import "unsafe"

// Handle is a portable reference to a region-resident value: a (region,
// absolute offset) pair. Unlike Rel it does not depend on where it is
// stored, so it supports full value semantics: it can be copied, compared,
// used as a map key, and passed across function boundaries.
//
// A Handle is non-owning. It must not outlive the region that produced it,
// and it cannot itself be stored inside a region (it holds a Go pointer);
// use Off for that.
type Handle[T any] struct {
	rg  *Region
	off uint64
}

// Get resolves the handle, or nil when the handle is null or its region has
// been closed.
func (h Handle[T]) Get() *T {
	if h.rg == nil || h.off == 0 || h.rg.data == nil {
		return nil
	}
	return (*T)(h.rg.pointer(h.off))
}

// IsNil reports whether the handle refers to nothing.
func (h Handle[T]) IsNil() bool {
	return h.rg == nil || h.off == 0
}

// Region returns the owning region (nil for the zero handle).
func (h Handle[T]) Region() *Region {
	return h.rg
}

// Offset returns the absolute byte offset within the region.
func (h Handle[T]) Offset() uint64 {
	return h.off
}

// Off returns the storable, offset-only form of the handle.
func (h Handle[T]) Off() Off[T] {
	return Off[T]{off: h.off}
}

// Off is the region-resident half of a Handle: an absolute offset with no
// region pointer. It is relocation-safe and freely copyable, which makes it
// the reference form for container keys and elements (see the package
// comment on copy discipline). Resolving one requires naming the region.
type Off[T any] struct {
	off uint64
}

// IsNil reports whether the reference is unset.
func (o Off[T]) IsNil() bool {
	return o.off == 0
}

// In resolves the reference within rg, or nil when unset.
func (o Off[T]) In(rg *Region) *T {
	if o.off == 0 || rg == nil || rg.data == nil {
		return nil
	}
	return (*T)(rg.pointer(o.off))
}

// Handle re-attaches the reference to its region.
func (o Off[T]) Handle(rg *Region) Handle[T] {
	if o.off == 0 {
		return Handle[T]{}
	}
	return Handle[T]{rg: rg, off: o.off}
}

// Ref converts a resident self-relative field into a portable handle.
func Ref[T any](rg *Region, field *Rel[T]) Handle[T] {
	target := field.Get()
	if target == nil || rg == nil {
		return Handle[T]{}
	}
	return Handle[T]{rg: rg, off: rg.offsetOf(unsafe.Pointer(target))}
}

// SetRef writes target into a self-relative field owned by rg.
//
// This is the only exported mutation path for Rel fields: it validates that
// the field lies within rg's span and that target belongs to the same
// region, then stores the displacement derived from the field's current
// address. Assigning a handle from another region is a usage error and is
// rejected with ErrRegionMismatch.
func SetRef[T any](rg *Region, field *Rel[T], target Handle[T]) error {
	if rg == nil {
		return ErrNilRegion
	}
	if err := rg.writable(); err != nil {
		return err
	}
	if target.rg != nil && target.rg != rg {
		return ErrRegionMismatch
	}
	if err := rg.checkSpan(unsafe.Pointer(field), unsafe.Sizeof(*field)); err != nil {
		return err
	}

	if target.off == 0 {
		field.off = 0
	} else {
		base := uintptr(rg.pointer(target.off))
		field.off = int64(base) - int64(uintptr(unsafe.Pointer(field)))
	}
	rg.noteWrite(unsafe.Pointer(field), unsafe.Sizeof(*field))

	return nil
}

// Root returns a handle to the region's singleton root object.
// When the region's identity was derived from the Go type (the default), R
// is validated against it; an explicit NamedTypeID opts out of this check.
func Root[R any](rg *Region) (Handle[R], error) {
	if rg == nil {
		return Handle[R]{}, ErrNilRegion
	}
	if rg.data == nil {
		return Handle[R]{}, ErrClosed
	}
	if !rg.namedType {
		if want := TypeOf[R](); want != rg.TypeID() {
			return Handle[R]{}, &TypeMismatchError{Stored: rg.TypeID(), Expected: want}
		}
	}
	return Handle[R]{rg: rg, off: rg.hdr.RootOff}, nil
}
