package regio

import (
	"bytes"
	"unsafe"
)

// String is a region-resident immutable byte string: a length plus a
// self-relative pointer to the character data. It relocates with its region
// like everything else. The empty string stores no character data.
//
// String values are built with NewString and never mutated afterwards, which
// is what lets Compare and Equal read them without a region in hand.
type String struct {
	size uint64
	data Rel[byte]
}

// StringRef is the storable reference form of a region string, usable as a
// container key or element.
type StringRef = Off[String]

// NewString copies s into rg and returns a handle to the resulting region
// string.
func NewString(rg *Region, s string) (Handle[String], error) {
	h, err := Alloc[String](rg)
	if err != nil {
		return Handle[String]{}, err
	}

	str := h.Get()
	str.size = uint64(len(s))

	if len(s) > 0 {
		run, err := AllocSlice[byte](rg, len(s))
		if err != nil {
			return Handle[String]{}, err
		}
		copy(SliceOf(run, len(s)), s)
		str.data.set(run.Get())
	}
	rg.noteWrite(unsafe.Pointer(str), unsafe.Sizeof(*str))

	return h, nil
}

// NewStringRef copies s into rg and returns the storable reference directly.
func NewStringRef(rg *Region, s string) (StringRef, error) {
	h, err := NewString(rg, s)
	if err != nil {
		return StringRef{}, err
	}
	return h.Off(), nil
}

// Len returns the length in bytes.
func (s *String) Len() int {
	return int(s.size)
}

// Bytes returns the character data. The slice aliases region memory; treat
// it as read-only and do not hold it across growth or Close.
func (s *String) Bytes() []byte {
	if s.size == 0 {
		return nil
	}
	return unsafe.Slice(s.data.Get(), s.size)
}

// String returns the value as a Go string (copied out of the region).
func (s *String) String() string {
	return string(s.Bytes())
}

// Equal reports whether two region strings hold the same bytes.
func (s *String) Equal(o *String) bool {
	if s.size != o.size {
		return false
	}
	return bytes.Equal(s.Bytes(), o.Bytes())
}

// EqualString reports whether the region string holds exactly t.
func (s *String) EqualString(t string) bool {
	if s.size != uint64(len(t)) {
		return false
	}
	return string(s.Bytes()) == t
}

// Compare lexicographically compares two region strings like bytes.Compare.
func (s *String) Compare(o *String) int {
	return bytes.Compare(s.Bytes(), o.Bytes())
}

// CompareString lexicographically compares the region string against t.
func (s *String) CompareString(t string) int {
	return bytes.Compare(s.Bytes(), []byte(t))
}
