package mmap

import (
	"os"
	"sync/atomic"
)

// Mapping represents a memory-mapped view of a file.
// It owns the mapped byte range and is responsible for unmapping it;
// it does NOT own the underlying file descriptor.
type Mapping struct {
	data     []byte
	size     int
	writable bool
	closed   atomic.Bool
	// Platform-specific hooks captured at map time.
	unmap func([]byte) error
	sync  func([]byte) error
}

// Map maps size bytes of fd into memory as a shared mapping.
// When writable is true the mapping is read-write and stores are written
// back to the file (on Flush at the latest).
func Map(fd uintptr, size int, writable bool) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, unmapFunc, syncFunc, err := osMap(fd, size, writable)
	if err != nil {
		return nil, err
	}

	return &Mapping{
		data:     data,
		size:     size,
		writable: writable,
		unmap:    unmapFunc,
		sync:     syncFunc,
	}, nil
}

// Close unmaps the memory. It is idempotent.
// Any slice previously returned by Bytes becomes invalid.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the underlying byte slice, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Writable reports whether the mapping was created read-write.
func (m *Mapping) Writable() bool {
	return m.writable
}

// Flush synchronously writes the whole mapping back to the file.
func (m *Mapping) Flush() error {
	return m.FlushRange(0, m.size)
}

// FlushRange synchronously writes [off, off+n) back to the file.
// The range is widened to page boundaries as required by the OS.
func (m *Mapping) FlushRange(off, n int) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.writable {
		return ErrReadOnly
	}
	if n == 0 {
		return nil
	}
	if off < 0 || n < 0 || off+n > m.size {
		return ErrOutOfBounds
	}

	// msync (and FlushViewOfFile) require a page-aligned start address.
	page := os.Getpagesize()
	start := off &^ (page - 1)
	end := off + n
	if end > m.size {
		end = m.size
	}

	return m.sync(m.data[start:end])
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}
