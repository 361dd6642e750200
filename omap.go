package regio

import (
	"iter"
	"unsafe"
)

const (
	// omapInitialBuckets is the bucket count of a dictionary's first table.
	omapInitialBuckets = 16

	// omapNoEntry is the empty chain sentinel in bucket slots and entry links.
	omapNoEntry = int32(-1)
)

type mapEntry[K any, V any] struct {
	hash uint64
	next int32
	key  K
	val  V
}

// OrderedMap is a region-resident hash dictionary that iterates in insertion
// order. Entries live in a segmented vector, which fixes the order and keeps
// entry addresses stable; a separate open-hashing bucket table indexes them
// by key hash. The table starts at 16 buckets and doubles past a 0.75 load
// factor. Old tables are abandoned in place, regions never free.
//
// Key and value types must be position independent (see Vector). Keys are
// hashed and compared by a caller-supplied Hasher, which every keyed
// operation takes; using different hashers on the same map is a usage error.
//
// The zero OrderedMap is an empty dictionary ready for use.
type OrderedMap[K any, V any] struct {
	entries  Vector[mapEntry[K, V]]
	buckets  Off[int32]
	nbuckets uint32
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int {
	return m.entries.Len()
}

func (m *OrderedMap[K, V]) bucketSlice(rg *Region) []int32 {
	return SliceOf(m.buckets.Handle(rg), int(m.nbuckets))
}

// find walks the bucket chain for hash and returns the matching entry, or
// nil. eq compares the probe against a stored key.
func (m *OrderedMap[K, V]) find(rg *Region, hash uint64, eq func(*K) bool) *mapEntry[K, V] {
	if m.nbuckets == 0 {
		return nil
	}
	buckets := m.bucketSlice(rg)
	for idx := buckets[hash&uint64(m.nbuckets-1)]; idx != omapNoEntry; {
		e := m.entries.at(uint64(idx))
		if e.hash == hash && eq(&e.key) {
			return e
		}
		idx = e.next
	}
	return nil
}

// Get returns a pointer to the value stored under key.
func (m *OrderedMap[K, V]) Get(rg *Region, h Hasher[K], key K) (*V, bool) {
	e := m.find(rg, h.Hash(rg, &key), func(k *K) bool { return h.Equal(rg, k, &key) })
	if e == nil {
		return nil, false
	}
	return &e.val, true
}

// Contains reports whether key is present.
func (m *OrderedMap[K, V]) Contains(rg *Region, h Hasher[K], key K) bool {
	_, ok := m.Get(rg, h, key)
	return ok
}

// Put stores val under key, overwriting any existing value. A key's position
// in iteration order is fixed by its first insertion.
func (m *OrderedMap[K, V]) Put(rg *Region, h Hasher[K], key K, val V) error {
	slot, _, err := m.Emplace(rg, h, key)
	if err != nil {
		return err
	}
	*slot = val
	rg.noteWrite(unsafe.Pointer(slot), unsafe.Sizeof(*slot))
	return nil
}

// Emplace returns a pointer to the value slot for key, inserting a zeroed
// entry when the key is new. The second result reports whether an insertion
// happened. This is the construct-in-place path for values that must be
// built inside the region.
func (m *OrderedMap[K, V]) Emplace(rg *Region, h Hasher[K], key K) (*V, bool, error) {
	if err := rg.writable(); err != nil {
		return nil, false, err
	}
	if err := rg.checkSpan(unsafe.Pointer(m), unsafe.Sizeof(*m)); err != nil {
		return nil, false, err
	}

	hash := h.Hash(rg, &key)
	if e := m.find(rg, hash, func(k *K) bool { return h.Equal(rg, k, &key) }); e != nil {
		return &e.val, false, nil
	}

	if m.nbuckets == 0 {
		if err := m.rehash(rg, omapInitialBuckets); err != nil {
			return nil, false, err
		}
	} else if uint64(m.entries.Len()+1)*4 > uint64(m.nbuckets)*3 {
		if err := m.rehash(rg, m.nbuckets*2); err != nil {
			return nil, false, err
		}
	}

	idx := int32(m.entries.Len())
	e, err := m.entries.EmplaceBack(rg)
	if err != nil {
		return nil, false, err
	}

	buckets := m.bucketSlice(rg)
	slot := &buckets[hash&uint64(m.nbuckets-1)]

	e.hash = hash
	e.next = *slot
	e.key = key
	*slot = idx
	rg.noteWrite(unsafe.Pointer(e), unsafe.Sizeof(*e))
	rg.noteWrite(unsafe.Pointer(slot), unsafe.Sizeof(*slot))

	return &e.val, true, nil
}

// rehash installs a fresh bucket table of n slots and re-chains every entry
// into it using the stored hashes. The previous table stays allocated but
// unreferenced.
func (m *OrderedMap[K, V]) rehash(rg *Region, n uint32) error {
	run, err := AllocSlice[int32](rg, int(n))
	if err != nil {
		return err
	}

	buckets := SliceOf(run, int(n))
	for i := range buckets {
		buckets[i] = omapNoEntry
	}

	for i, e := range m.entries.All() {
		slot := &buckets[e.hash&uint64(n-1)]
		e.next = *slot
		*slot = int32(i)
		rg.noteWrite(unsafe.Pointer(&e.next), unsafe.Sizeof(e.next))
	}

	m.buckets = run.Off()
	m.nbuckets = n
	rg.noteWrite(unsafe.Pointer(m), unsafe.Sizeof(*m))
	rg.noteWrite(unsafe.Pointer(&buckets[0]), uintptr(n)*unsafe.Sizeof(buckets[0]))

	return nil
}

// All iterates entries in insertion order, yielding pointers to key and
// value. Mutating a yielded key is a usage error; the bucket chains are not
// rebuilt.
func (m *OrderedMap[K, V]) All() iter.Seq2[*K, *V] {
	return func(yield func(*K, *V) bool) {
		for _, e := range m.entries.All() {
			if !yield(&e.key, &e.val) {
				return
			}
		}
	}
}

// Lookup finds a value by a query of type Q without materializing a key,
// using a Probe that agrees with the map's Hasher. The canonical use is
// looking up a StringRef-keyed dictionary by a Go string.
func Lookup[Q any, K any, V any](m *OrderedMap[K, V], rg *Region, p Probe[Q, K], q Q) (*V, bool) {
	e := m.find(rg, p.Hash(rg, q), func(k *K) bool { return p.Match(rg, q, k) })
	if e == nil {
		return nil, false
	}
	return &e.val, true
}
