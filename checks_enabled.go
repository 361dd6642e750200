//go:build regiocheck

package regio

import (
	"fmt"
	"sync"
	"unsafe"
)

// With the regiocheck build tag, every live region registers its address
// span and every self-relative dereference asserts that the pointer's own
// storage still resides inside one of them. This catches the two fatal
// misuses the type system cannot: a Rel copied out of its region, and a
// handle used after its region was closed or remapped.

var (
	checkMu   sync.RWMutex
	liveSpans = map[*Region][2]uintptr{}
)

func registerRegion(r *Region) {
	checkMu.Lock()
	defer checkMu.Unlock()
	base := uintptr(unsafe.Pointer(&r.data[0]))
	liveSpans[r] = [2]uintptr{base, base + uintptr(len(r.data))}
}

func unregisterRegion(r *Region) {
	checkMu.Lock()
	defer checkMu.Unlock()
	delete(liveSpans, r)
}

func assertResident(p unsafe.Pointer, size uintptr) {
	checkMu.RLock()
	defer checkMu.RUnlock()
	addr := uintptr(p)
	for _, span := range liveSpans {
		if addr >= span[0] && addr+size <= span[1] {
			return
		}
	}
	panic(fmt.Sprintf("regio: self-relative pointer at %#x is not resident in any live region", addr))
}
