package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// zlibCodec produces RFC 1950 streams: a two-byte header, a deflate body,
// and a big-endian adler32 trailer that is verified on decode.
type zlibCodec struct {
	level   int
	writers sync.Pool
	readers sync.Pool
}

func newZlibCodec(cfg config) (*zlibCodec, error) {
	level := zlib.DefaultCompression
	if cfg.levelSet {
		level = cfg.level
	}
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		return nil, fmt.Errorf("zlib: invalid compression level: %d", level)
	}
	return &zlibCodec{level: level}, nil
}

func (c *zlibCodec) Algorithm() Algorithm { return Zlib }

func (c *zlibCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(src)/2 + 16)

	zw, err := c.getWriter(&buf)
	if err != nil {
		return nil, err
	}
	defer c.writers.Put(zw)

	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

// deflateMaxRatio is the largest output-to-input ratio a deflate stream can
// reach. A declared size beyond it cannot be produced by src.
const deflateMaxRatio = 1032

func (c *zlibCodec) Decompress(src []byte, size int) ([]byte, error) {
	if !withinRatio(len(src), size, deflateMaxRatio) {
		return nil, fmt.Errorf("%w: %d bytes cannot inflate to %d", ErrMalformed, len(src), size)
	}
	zr, err := c.getReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	defer c.readers.Put(zr)
	return readExact(zr, size)
}

// getWriter returns a pooled writer reset to w.
func (c *zlibCodec) getWriter(w io.Writer) (*zlib.Writer, error) {
	if zw, ok := c.writers.Get().(*zlib.Writer); ok {
		zw.Reset(w)
		return zw, nil
	}
	zw, err := zlib.NewWriterLevel(w, c.level)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	return zw, nil
}

// getReader returns a pooled reader reset to r. Reading the stream header
// happens here, so a bad header surfaces as an error from getReader.
func (c *zlibCodec) getReader(r io.Reader) (io.ReadCloser, error) {
	if zr, ok := c.readers.Get().(io.ReadCloser); ok {
		if resetter, ok := zr.(zlib.Resetter); ok {
			if err := resetter.Reset(r, nil); err != nil {
				return nil, err
			}
			return zr, nil
		}
	}
	return zlib.NewReader(r)
}

// readExact reads exactly size bytes from r and requires the stream to end
// there. Reaching the end is what makes checksumming readers verify.
func readExact(r io.Reader, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	var probe [1]byte
	switch _, err := io.ReadFull(r, probe[:]); err {
	case nil:
		return nil, fmt.Errorf("%w: stream longer than %d bytes", ErrShortBuffer, size)
	case io.EOF:
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
