package regio

import (
	"bytes"
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Hasher supplies hashing and equality for dictionary keys of type K. The
// hash must be a pure function of key content, never of key addresses, so
// that it stays valid across relocation and across processes.
type Hasher[K any] interface {
	Hash(rg *Region, k *K) uint64
	Equal(rg *Region, a, b *K) bool
}

// Probe supplies hashing and equality for looking a dictionary up by a query
// type Q different from the stored key type K, without materializing a K.
// The hash must agree with the Hasher used to build the dictionary.
type Probe[Q any, K any] interface {
	Hash(rg *Region, q Q) uint64
	Match(rg *Region, q Q, k *K) bool
}

// Uint64Hasher hashes uint64 keys.
type Uint64Hasher struct{}

func (Uint64Hasher) Hash(_ *Region, k *uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], *k)
	return xxh3.Hash(b[:])
}

func (Uint64Hasher) Equal(_ *Region, a, b *uint64) bool {
	return *a == *b
}

// StringHasher hashes StringRef keys by the referenced character data, so
// two distinct region strings with equal bytes are the same key.
type StringHasher struct{}

func (StringHasher) Hash(rg *Region, k *StringRef) uint64 {
	s := k.In(rg)
	if s == nil {
		return xxh3.Hash(nil)
	}
	return xxh3.Hash(s.Bytes())
}

func (StringHasher) Equal(rg *Region, a, b *StringRef) bool {
	sa, sb := a.In(rg), b.In(rg)
	if sa == nil || sb == nil {
		return sa == sb
	}
	return sa.Equal(sb)
}

// StringProbe looks up StringRef-keyed dictionaries by a plain Go string,
// hashing identically to StringHasher.
type StringProbe struct{}

func (StringProbe) Hash(_ *Region, q string) uint64 {
	if len(q) == 0 {
		return xxh3.Hash(nil)
	}
	return xxh3.HashString(q)
}

func (StringProbe) Match(rg *Region, q string, k *StringRef) bool {
	s := k.In(rg)
	if s == nil {
		return false
	}
	return s.EqualString(q)
}

// BytesProbe looks up StringRef-keyed dictionaries by a borrowed byte
// slice, hashing identically to StringHasher.
type BytesProbe struct{}

func (BytesProbe) Hash(_ *Region, q []byte) uint64 {
	return xxh3.Hash(q)
}

func (BytesProbe) Match(rg *Region, q []byte, k *StringRef) bool {
	s := k.In(rg)
	if s == nil {
		return false
	}
	return bytes.Equal(s.Bytes(), q)
}
