// Package compress implements the compression service used for archive
// members. Every codec compresses a whole buffer at once and decompresses
// into a buffer of a caller-supplied exact length.
package compress

import (
	"errors"
	"fmt"
)

// Algorithm identifies the compression algorithm used for member payloads.
//
// The archive format carries no algorithm marker, so an archive must be read
// with the same algorithm it was written with. Zlib is the interchange
// default.
type Algorithm uint8

const (
	None Algorithm = iota
	Zlib
	Zstd
	LZ4
)

// String returns the human-readable name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses an algorithm from its string representation.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "none", "store":
		return None, nil
	case "zlib", "deflate":
		return Zlib, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression algorithm: %q", name)
	}
}

// Decode failure kinds. Every Decompress error wraps exactly one of these.
var (
	// ErrShortBuffer means the stream decodes to more than the expected length.
	ErrShortBuffer = errors.New("compress: output buffer too small")

	// ErrMalformed means the stream is corrupt, truncated, fails its checksum,
	// or decodes to fewer bytes than expected.
	ErrMalformed = errors.New("compress: malformed stream")

	// ErrMemory means the decoder would exceed its memory limit.
	ErrMemory = errors.New("compress: memory limit exceeded")
)

// ErrIncompressible is returned by Compress when a codec detects that the
// input cannot be made smaller. Callers store such input verbatim.
var ErrIncompressible = errors.New("compress: incompressible input")

// Codec compresses and decompresses whole member payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Algorithm reports which algorithm the codec implements.
	Algorithm() Algorithm

	// Compress returns a compressed copy of src. The result may be larger
	// than src.
	Compress(src []byte) ([]byte, error)

	// Decompress decodes src and returns exactly size bytes.
	Decompress(src []byte, size int) ([]byte, error)
}

type config struct {
	level     int
	levelSet  bool
	maxMemory uint64
}

// Option configures a Codec.
type Option func(*config)

// WithLevel sets the compression level. The meaning is algorithm specific:
// zlib accepts -2..9, zstd accepts 1..22. LZ4 ignores it.
func WithLevel(level int) Option {
	return func(c *config) {
		c.level = level
		c.levelSet = true
	}
}

// WithMaxMemory caps decoder memory where the algorithm supports it.
// Zero means no limit.
func WithMaxMemory(n uint64) Option {
	return func(c *config) {
		c.maxMemory = n
	}
}

// New returns a codec for the given algorithm.
func New(alg Algorithm, opts ...Option) (Codec, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	switch alg {
	case None:
		return storeCodec{}, nil
	case Zlib:
		return newZlibCodec(cfg)
	case Zstd:
		return newZstdCodec(cfg)
	case LZ4:
		return lz4Codec{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
	}
}

// storeCodec never compresses. Archives written with it hold every member
// verbatim, so a member that claims to be compressed cannot be decoded.
type storeCodec struct{}

func (storeCodec) Algorithm() Algorithm { return None }

func (storeCodec) Compress([]byte) ([]byte, error) {
	return nil, ErrIncompressible
}

func (storeCodec) Decompress([]byte, int) ([]byte, error) {
	return nil, fmt.Errorf("%w: stored archive has a compressed member", ErrMalformed)
}

// withinRatio reports whether n compressed bytes can decode to size bytes
// for a format whose output never exceeds ratio times its input, plus a
// small allowance for headers.
func withinRatio(n, size, ratio int) bool {
	return uint64(size) <= uint64(n)*uint64(ratio)+64 //nolint:gosec // both non-negative
}
