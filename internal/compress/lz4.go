package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4Codec uses raw LZ4 blocks. The block format has no framing; the
// expected output length is what bounds the decode.
type lz4Codec struct{}

func (lz4Codec) Algorithm() Algorithm { return LZ4 }

func (lz4Codec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when the input is incompressible.
	if n == 0 {
		return nil, ErrIncompressible
	}
	return dst[:n], nil
}

// lz4MaxRatio bounds the output of one LZ4 block relative to its input.
const lz4MaxRatio = 255

func (lz4Codec) Decompress(src []byte, size int) ([]byte, error) {
	if !withinRatio(len(src), size, lz4MaxRatio) {
		return nil, fmt.Errorf("%w: lz4: %d bytes cannot expand to %d", ErrMalformed, len(src), size)
	}
	// One spare byte distinguishes an oversized stream from a corrupt one.
	dst := make([]byte, size+1)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrMalformed, err)
	}
	switch {
	case n > size:
		return nil, fmt.Errorf("%w: decoded more than %d bytes", ErrShortBuffer, size)
	case n < size:
		return nil, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrMalformed, n, size)
	}
	return dst[:size:size], nil
}
