package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/regio/internal/hash"
)

const (
	// snapshotMagic identifies snapshot envelopes (ASCII: "RSN1").
	snapshotMagic = 0x52534e31

	// snapshotVersion is the current envelope layout version.
	snapshotVersion = 1
)

var (
	// ErrInvalidSnapshot is returned when bytes do not form a snapshot
	// envelope.
	ErrInvalidSnapshot = errors.New("snapshot: invalid snapshot data")

	// ErrChecksum is returned when the payload checksum does not match.
	ErrChecksum = errors.New("snapshot: checksum mismatch")

	// ErrUnknownCodec is returned when a snapshot names a codec this build
	// does not know.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
)

// Envelope layout, little-endian:
//
//	magic    uint32
//	version  uint16
//	codecLen uint8
//	codec    [codecLen]byte
//	rawSize  uint64  uncompressed payload length
//	crc      uint32  CRC32-C of all preceding fields and the payload
//	payload  rest of the buffer
//
// The checksum spans the header so a corrupted rawSize or codec name is
// caught before either drives an allocation.

// Encode wraps a region image into a snapshot envelope using c.
func Encode(image []byte, c Codec) ([]byte, error) {
	if c == nil {
		c = Default
	}
	name := c.Name()
	if len(name) == 0 || len(name) > 255 {
		return nil, fmt.Errorf("snapshot: invalid codec name %q", name)
	}

	payload, err := c.Compress(image)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 4+2+1+len(name)+8+4+len(payload))
	buf = binary.LittleEndian.AppendUint32(buf, snapshotMagic)
	buf = binary.LittleEndian.AppendUint16(buf, snapshotVersion)
	buf = append(buf, uint8(len(name)))
	buf = append(buf, name...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(image)))

	crcAt := len(buf)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = append(buf, payload...)

	h := hash.NewCRC32C()
	h.Write(buf[:crcAt])
	h.Write(buf[crcAt+4:])
	binary.LittleEndian.PutUint32(buf[crcAt:], h.Sum32())

	return buf, nil
}

// Decode unwraps a snapshot envelope and returns the region image. The
// payload checksum is verified before decompression.
func Decode(data []byte) ([]byte, error) {
	if len(data) < 7 {
		return nil, ErrInvalidSnapshot
	}
	if binary.LittleEndian.Uint32(data) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidSnapshot, v)
	}

	nameLen := int(data[6])
	rest := data[7:]
	if len(rest) < nameLen+12 {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidSnapshot)
	}
	name := string(rest[:nameLen])
	rest = rest[nameLen:]

	rawSize := binary.LittleEndian.Uint64(rest)
	crc := binary.LittleEndian.Uint32(rest[8:])
	payload := rest[12:]

	h := hash.NewCRC32C()
	h.Write(data[:7+nameLen+8])
	h.Write(payload)
	if h.Sum32() != crc {
		return nil, ErrChecksum
	}

	c, ok := ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	return c.Decompress(payload, int(rawSize))
}
