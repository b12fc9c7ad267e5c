package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdInitialCap is the largest output buffer allocated before decoding.
const zstdInitialCap = 1 << 20

// zstdCodec shares one encoder and one decoder; EncodeAll and DecodeAll are
// safe for concurrent use.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec(cfg config) (*zstdCodec, error) {
	eopts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
	if cfg.levelSet {
		eopts = append(eopts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.level)))
	}
	enc, err := zstd.NewWriter(nil, eopts...)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	dopts := []zstd.DOption{zstd.WithDecoderConcurrency(0)}
	if cfg.maxMemory != 0 {
		dopts = append(dopts, zstd.WithDecoderMaxMemory(cfg.maxMemory))
	}
	dec, err := zstd.NewReader(nil, dopts...)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Algorithm() Algorithm { return Zstd }

func (c *zstdCodec) Compress(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, make([]byte, 0, len(src)/2+16)), nil
}

func (c *zstdCodec) Decompress(src []byte, size int) ([]byte, error) {
	// zstd has no useful expansion bound, so the buffer grows as frames
	// decode and the decoder's memory limit caps it.
	out, err := c.dec.DecodeAll(src, make([]byte, 0, min(size, zstdInitialCap)))
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrMemory, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch {
	case len(out) > size:
		return nil, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrShortBuffer, len(out), size)
	case len(out) < size:
		return nil, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrMalformed, len(out), size)
	}
	return out, nil
}
