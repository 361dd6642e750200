package regio

import (
	"errors"
	"fmt"
	"unsafe"
)

const (
	// MagicNumber identifies region images (ASCII: "RGO1").
	MagicNumber = 0x52474f31
	// FormatVersion is the current region layout version (v1.0.0).
	FormatVersion = 0x00010000

	// HeaderSize is the fixed size of the in-block region header. The root
	// object starts immediately after it.
	HeaderSize = 64

	// maxAlign is the largest supported allocation alignment. Go types never
	// require more than 8-byte alignment, and both heap blocks and mapped
	// pages are at least 8-aligned.
	maxAlign = 8
)

var (
	// ErrInvalidMagic is returned when a byte image does not start with a
	// region header.
	ErrInvalidMagic = errors.New("regio: invalid magic number")
	// ErrInvalidVersion is returned for an unsupported layout version.
	ErrInvalidVersion = errors.New("regio: unsupported format version")
	// ErrCorruptHeader is returned when header fields are mutually
	// inconsistent (occupation beyond capacity, root outside the image).
	ErrCorruptHeader = errors.New("regio: corrupt region header")
	// ErrImageTooSmall is returned when a byte image or file is shorter than
	// its header claims.
	ErrImageTooSmall = errors.New("regio: image smaller than recorded occupation")
)

// header is the 64-byte block header at offset 0 of every region.
// Layout is fixed little-endian native; safety.go rejects platforms where
// that assumption does not hold.
type header struct {
	Magic    uint32
	Version  uint32
	TypeHi   uint64
	TypeLo   uint64
	Capacity uint64
	Occupied uint64
	RootOff  uint64
	Reserved [2]uint64
}

const _ = uint(HeaderSize - unsafe.Sizeof(header{})) // header must be exactly HeaderSize
const _ = uint(unsafe.Sizeof(header{}) - HeaderSize)

// validateImage checks the header of a raw region image against the expected
// root type identity. It does not touch anything beyond the header.
func validateImage(data []byte, expected TypeID) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrImageTooSmall, len(data))
	}

	hdr := (*header)(unsafe.Pointer(&data[0]))
	if hdr.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != FormatVersion {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}

	stored := TypeID{Hi: hdr.TypeHi, Lo: hdr.TypeLo}
	if stored != expected {
		return &TypeMismatchError{Stored: stored, Expected: expected}
	}

	if hdr.Occupied < HeaderSize || hdr.Occupied > hdr.Capacity {
		return fmt.Errorf("%w: occupation %d, capacity %d", ErrCorruptHeader, hdr.Occupied, hdr.Capacity)
	}
	if hdr.RootOff < HeaderSize || hdr.RootOff >= hdr.Occupied {
		return fmt.Errorf("%w: root offset %d", ErrCorruptHeader, hdr.RootOff)
	}
	if uint64(len(data)) < hdr.Occupied {
		return fmt.Errorf("%w: image %d bytes, occupation %d", ErrImageTooSmall, len(data), hdr.Occupied)
	}

	return nil
}
