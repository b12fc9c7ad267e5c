package ccf

import "github.com/meigma/ccf/internal/compress"

// Compression identifies the compression service used for member payloads.
//
// The archive carries no marker for it: archives written with one algorithm
// must be read with the same one. CompressionZlib is the interchange format
// and the default for both encoding and decoding.
type Compression = compress.Algorithm

const (
	// CompressionNone stores every member verbatim.
	CompressionNone = compress.None

	// CompressionZlib compresses members as zlib streams.
	CompressionZlib = compress.Zlib

	// CompressionZstd compresses members as zstd frames.
	CompressionZstd = compress.Zstd

	// CompressionLZ4 compresses members as raw LZ4 blocks.
	CompressionLZ4 = compress.LZ4
)

// ParseCompression parses a compression name: none, zlib, zstd or lz4.
var ParseCompression = compress.ParseAlgorithm
