package regio

import (
	"os"

	"github.com/RoaringBitmap/roaring/v2"
)

// pageTracker records which pages of a mapped writable region have been
// touched through region-mediated writes (allocation, SetRef, container
// mutation), so Flush(FlushDirty) can sync only those pages.
//
// Stores performed directly through raw pointers bypass the tracker; callers
// doing that must use a full flush. Page indices are 32-bit, which bounds a
// trackable region at 16 TiB with 4 KiB pages, far beyond a mappable file.
type pageTracker struct {
	pageSize uint64
	pages    *roaring.Bitmap
}

func newPageTracker() *pageTracker {
	return &pageTracker{
		pageSize: uint64(os.Getpagesize()),
		pages:    roaring.New(),
	}
}

// mark records the byte range [off, off+size) as dirty.
func (t *pageTracker) mark(off, size uint64) {
	if size == 0 {
		return
	}
	first := off / t.pageSize
	last := (off + size - 1) / t.pageSize
	t.pages.AddRange(first, last+1)
}

// reset clears the tracker after a successful flush.
func (t *pageTracker) reset() {
	t.pages.Clear()
}

// ranges yields maximal runs of dirty pages as byte ranges, clamped to
// limit. Contiguous pages coalesce into a single flush call.
func (t *pageTracker) ranges(limit uint64, yield func(off, size uint64) error) error {
	it := t.pages.Iterator()

	var (
		runStart uint64
		runEnd   uint64
		open     bool
	)

	emit := func() error {
		off := runStart * t.pageSize
		end := (runEnd + 1) * t.pageSize
		if off >= limit {
			return nil
		}
		if end > limit {
			end = limit
		}
		return yield(off, end-off)
	}

	for it.HasNext() {
		page := uint64(it.Next())
		switch {
		case !open:
			runStart, runEnd, open = page, page, true
		case page == runEnd+1:
			runEnd = page
		default:
			if err := emit(); err != nil {
				return err
			}
			runStart, runEnd = page, page
		}
	}
	if open {
		return emit()
	}
	return nil
}
