package regio

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/hupe1980/regio/internal/conv"
	"github.com/hupe1980/regio/internal/mmap"
)

// FlushMode selects how much of a file-backed region Flush writes back.
type FlushMode int

const (
	// FlushDirty syncs only the pages touched through region-mediated
	// writes since the last flush. Stores made through raw pointers
	// obtained from handles are not tracked; use FlushFull after those.
	FlushDirty FlushMode = iota

	// FlushFull syncs the entire occupied prefix.
	FlushFull
)

// CreateFile creates path exclusively, sizes it to hold the header, the root
// object and reserve bytes of free capacity, maps it read-write and formats
// it as a region for root type R. The file is removed again if any step after
// creation fails.
func CreateFile[R any](path string, reserve int, opts ...Option) (*Region, error) {
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

	f, err := o.fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create region file: %w", err)
	}

	fail := func(err error) (*Region, error) {
		_ = f.Close()
		_ = o.fsys.Remove(path)
		return nil, err
	}

	if err := f.Truncate(int64(totalInt)); err != nil {
		return fail(fmt.Errorf("size region file: %w", err))
	}

	mapping, err := mmap.Map(f.Fd(), totalInt, true)
	if err != nil {
		return fail(fmt.Errorf("map region file: %w", err))
	}

	r := &Region{
		data:      mapping.Bytes(),
		mapping:   mapping,
		file:      f,
		fsys:      o.fsys,
		path:      path,
		dirty:     newPageTracker(),
		constrict: o.constrict,
		namedType: named,
		logger:    o.logger.WithPath(path),
		metrics:   o.metrics,
	}
	r.hdr = (*header)(unsafe.Pointer(&r.data[0]))

	if err := r.format(id, rootSize, rootAlign); err != nil {
		_ = mapping.Close()
		return fail(err)
	}
	registerRegion(r)

	r.logger.Debug("region file created",
		"type", id.String(),
		"capacity", total,
	)

	return r, nil
}

// OpenFile maps an existing region file read-write after validating its
// header against root type R. If the file's free capacity is below reserve
// the file is grown before the region is returned, so the caller starts with
// at least reserve bytes allocatable.
func OpenFile[R any](path string, reserve int, opts ...Option) (*Region, error) {
	if reserve < 0 {
		return nil, fmt.Errorf("regio: negative reserve %d", reserve)
	}

	o := applyOptions(opts)
	id, named := o.rootType(TypeOf[R]())

	r, err := openMapped(path, o, id, named, false)
	if err != nil {
		return nil, err
	}

	// The file size is authoritative for capacity. A previous constricted
	// close leaves the recorded capacity equal to the occupation mark.
	r.hdr.Capacity = uint64(len(r.data))
	r.markDirty(0, HeaderSize)

	if err := r.EnsureReserve(reserve); err != nil {
		_ = r.Close()
		return nil, err
	}

	return r, nil
}

// OpenFileReadOnly maps an existing region file read-only. All mutating
// operations on the returned region fail with ErrReadOnly; the file is never
// written or resized.
func OpenFileReadOnly[R any](path string, opts ...Option) (*Region, error) {
	o := applyOptions(opts)
	id, named := o.rootType(TypeOf[R]())

	return openMapped(path, o, id, named, true)
}

func openMapped(path string, o *options, id TypeID, named, readonly bool) (*Region, error) {
	flag := os.O_RDWR
	if readonly {
		flag = os.O_RDONLY
	}

	f, err := o.fsys.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open region file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat region file: %w", err)
	}
	size := info.Size()
	if size < HeaderSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: file is %d bytes", ErrImageTooSmall, size)
	}

	sizeInt, err := conv.Uint64ToInt(uint64(size))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	mapping, err := mmap.Map(f.Fd(), sizeInt, !readonly)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("map region file: %w", err)
	}

	data := mapping.Bytes()
	if err := validateImage(data, id); err != nil {
		_ = mapping.Close()
		_ = f.Close()
		return nil, err
	}

	r := &Region{
		data:      data,
		hdr:       (*header)(unsafe.Pointer(&data[0])),
		mapping:   mapping,
		file:      f,
		fsys:      o.fsys,
		path:      path,
		readonly:  readonly,
		constrict: o.constrict && !readonly,
		namedType: named,
		logger:    o.logger.WithPath(path),
		metrics:   o.metrics,
	}
	if !readonly {
		r.dirty = newPageTracker()
	}
	registerRegion(r)

	r.logger.Debug("region file opened",
		"type", id.String(),
		"size", size,
		"occupied", r.hdr.Occupied,
		"readonly", readonly,
	)

	return r, nil
}

// EnsureReserve grows the backing file until at least reserve bytes are
// allocatable. It is a no-op when the free capacity already suffices. Growth
// remaps the file; all raw pointers and slices previously obtained from
// handles are invalidated, handles themselves stay valid.
func (r *Region) EnsureReserve(reserve int) error {
	if err := r.writable(); err != nil {
		return err
	}
	if r.mapping == nil {
		return ErrNotMapped
	}
	if reserve < 0 {
		return fmt.Errorf("regio: negative reserve %d", reserve)
	}

	reserveU, err := conv.IntToUint64(reserve)
	if err != nil {
		return err
	}
	if r.hdr.Capacity-r.hdr.Occupied >= reserveU {
		return nil
	}

	newCap := alignUp(r.hdr.Occupied+reserveU, uint64(os.Getpagesize()))

	return r.grow(newCap)
}

// grow resizes the backing file to newCap bytes and remaps it. The occupied
// prefix is untouched; only the capacity changes.
func (r *Region) grow(newCap uint64) error {
	oldCap := r.hdr.Capacity

	newCapInt, err := conv.Uint64ToInt(newCap)
	if err != nil {
		return err
	}
	newCapI64, err := conv.Uint64ToInt64(newCap)
	if err != nil {
		return err
	}

	// The header lives inside the mapping, so everything needed after the
	// unmap must be read out first.
	unregisterRegion(r)
	r.hdr = nil
	r.data = nil

	if err := r.mapping.Close(); err != nil {
		return fmt.Errorf("unmap for grow: %w", err)
	}
	r.mapping = nil

	if err := r.file.Truncate(newCapI64); err != nil {
		return fmt.Errorf("grow region file: %w", err)
	}

	mapping, err := mmap.Map(r.file.Fd(), newCapInt, true)
	if err != nil {
		return fmt.Errorf("remap region file: %w", err)
	}

	r.mapping = mapping
	r.data = mapping.Bytes()
	r.hdr = (*header)(unsafe.Pointer(&r.data[0]))
	r.hdr.Capacity = newCap
	r.markDirty(0, HeaderSize)
	registerRegion(r)

	r.metrics.RecordGrow(oldCap, newCap)
	r.logger.Debug("region grown",
		"old_capacity", oldCap,
		"new_capacity", newCap,
	)

	return nil
}

// Flush writes region contents back to the file and waits for the disk.
// FlushDirty syncs only tracked pages; FlushFull syncs the whole occupied
// prefix. Heap-backed regions return ErrNotMapped.
func (r *Region) Flush(mode FlushMode) error {
	if r == nil {
		return ErrNilRegion
	}
	if r.closed || r.data == nil {
		return ErrClosed
	}
	if r.mapping == nil {
		return ErrNotMapped
	}
	if r.readonly {
		return ErrReadOnly
	}

	start := time.Now()
	occ := r.hdr.Occupied

	var flushed uint64
	var err error

	switch mode {
	case FlushFull:
		occInt, cerr := conv.Uint64ToInt(occ)
		if cerr != nil {
			err = cerr
			break
		}
		err = r.mapping.FlushRange(0, occInt)
		flushed = occ
	case FlushDirty:
		err = r.dirty.ranges(occ, func(off, size uint64) error {
			offInt, cerr := conv.Uint64ToInt(off)
			if cerr != nil {
				return cerr
			}
			sizeInt, cerr := conv.Uint64ToInt(size)
			if cerr != nil {
				return cerr
			}
			if ferr := r.mapping.FlushRange(offInt, sizeInt); ferr != nil {
				return ferr
			}
			flushed += size
			return nil
		})
	default:
		return fmt.Errorf("regio: invalid flush mode %d", mode)
	}

	if err == nil {
		r.dirty.reset()
	}
	r.metrics.RecordFlush(flushed, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("flush region: %w", err)
	}
	return nil
}

// closeFile tears down a file-backed region: flush the occupied prefix,
// optionally constrict the file to it, unmap and close the descriptor.
// Called from Close with the closed flag already set.
func (r *Region) closeFile() error {
	var errs []error

	occ := r.hdr.Occupied
	capacity := r.hdr.Capacity
	shrink := r.constrict && !r.readonly && occ < capacity

	if !r.readonly {
		if shrink {
			// The recorded capacity must match the file size the truncate
			// below leaves behind.
			r.hdr.Capacity = occ
		}
		occInt, err := conv.Uint64ToInt(occ)
		if err == nil {
			err = r.mapping.FlushRange(0, occInt)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("flush on close: %w", err))
		}
	}

	r.hdr = nil
	r.data = nil

	if err := r.mapping.Close(); err != nil {
		errs = append(errs, fmt.Errorf("unmap: %w", err))
	}
	r.mapping = nil
	r.dirty = nil

	if shrink {
		occI64, err := conv.Uint64ToInt64(occ)
		if err == nil {
			err = r.file.Truncate(occI64)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("constrict: %w", err))
		} else {
			r.logger.Debug("region constricted",
				"capacity", capacity,
				"occupied", occ,
			)
		}
	}

	if err := r.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close region file: %w", err))
	}
	r.file = nil

	return errors.Join(errs...)
}
