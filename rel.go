package regio

import "unsafe"

// Rel is a self-relative pointer: a signed byte displacement from its own
// storage address to its target. Zero means null (a pointer can never
// legitimately target itself, so zero is free to act as the sentinel).
//
// A Rel is only valid while it still resides at the address it was assigned
// at; slot and target relocate together when the whole region moves, which
// is the entire relocation guarantee. The displacement is deliberately
// unexported: the only legal construction path is a region-scoped setter
// (SetRef, or the container internals), which re-derives the displacement
// from the slot's current address.
type Rel[T any] struct {
	off int64
}

// Get resolves the pointer, or nil when unset.
// Callers must check for nil; a null dereference is not an error here.
func (p *Rel[T]) Get() *T {
	if p.off == 0 {
		return nil
	}
	assertResident(unsafe.Pointer(p), unsafe.Sizeof(*p))
	return (*T)(unsafe.Add(unsafe.Pointer(p), p.off))
}

// IsNil reports whether the pointer is unset.
func (p *Rel[T]) IsNil() bool {
	return p.off == 0
}

// set stores the displacement from p's own address to target.
// Package-internal: all external mutation goes through SetRef.
func (p *Rel[T]) set(target *T) {
	if target == nil {
		p.off = 0
		return
	}
	p.off = int64(uintptr(unsafe.Pointer(target))) - int64(uintptr(unsafe.Pointer(p)))
}
