package snapshot

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses snapshot payloads. Implementations must be safe for
// concurrent use; the codec name is recorded in the snapshot header so
// snapshots are self-describing.
type Codec interface {
	// Compress returns the encoded form of src.
	Compress(src []byte) ([]byte, error)

	// Decompress reverses Compress. size is the original payload length
	// recorded in the snapshot header.
	Decompress(src []byte, size int) ([]byte, error)

	// Name returns the stable codec name stored in snapshot headers.
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "none":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
var Default Codec = Zstd{}

// None stores payloads verbatim.
type None struct{}

func (None) Name() string { return "none" }

func (None) Compress(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

func (None) Decompress(src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, fmt.Errorf("snapshot: payload is %d bytes, header says %d", len(src), size)
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// Encoder/decoder pools amortize zstd setup across snapshots.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Zstd compresses with zstd at the default speed level. Good ratio on the
// zero-heavy tail of freshly created regions.
type Zstd struct{}

func (Zstd) Name() string { return "zstd" }

func (Zstd) Compress(src []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

func (Zstd) Decompress(src []byte, size int) ([]byte, error) {
	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd decompress: %w", err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("snapshot: decompressed to %d bytes, header says %d", len(out), size)
	}
	return out, nil
}

// LZ4 compresses with LZ4 block compression, trading ratio for speed.
// Incompressible payloads are stored verbatim; a stored length equal to the
// original length marks that case, which is unambiguous because a successful
// LZ4 block is always strictly smaller than its input.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Compress(src []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(src)))

	var c lz4.Compressor
	n, err := c.CompressBlock(src, buf)
	if err != nil {
		return nil, fmt.Errorf("snapshot: lz4 compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}
	return buf[:n], nil
}

func (LZ4) Decompress(src []byte, size int) ([]byte, error) {
	if len(src) == size {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, fmt.Errorf("snapshot: lz4 decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("snapshot: decompressed to %d bytes, header says %d", n, size)
	}
	return out, nil
}
