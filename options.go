package ccf

import (
	"log/slog"

	"github.com/meigma/ccf/internal/extract"
)

// encodeConfig holds configuration for archive encoding.
type encodeConfig struct {
	compression Compression
	level       int
	levelSet    bool
	workers     int
	logger      *slog.Logger
	progress    ProgressFunc
}

// EncodeOption configures archive encoding.
type EncodeOption func(*encodeConfig)

// EncodeWithCompression sets the compression service. The default is
// CompressionZlib; CompressionNone stores every member verbatim.
func EncodeWithCompression(c Compression) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.compression = c
	}
}

// EncodeWithLevel sets the compression level for zlib (-2..9) or zstd (1..22).
func EncodeWithLevel(level int) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.level = level
		cfg.levelSet = true
	}
}

// EncodeWithWorkers sets how many members are compressed concurrently.
// Values <= 1 compress members one at a time. Layout is unaffected: offsets
// are always assigned in member order once every stored size is known.
func EncodeWithWorkers(n int) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.workers = n
	}
}

// EncodeWithLogger sets the logger for encoding.
// If not set, logging is disabled.
func EncodeWithLogger(logger *slog.Logger) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.logger = logger
	}
}

// EncodeWithProgress sets a callback that receives one event per member and
// stage.
func EncodeWithProgress(fn ProgressFunc) EncodeOption {
	return func(cfg *encodeConfig) {
		cfg.progress = fn
	}
}

// DefaultMaxMemberSize is the default limit on the stored and restored size
// of a single member when decoding.
const DefaultMaxMemberSize = 256 << 20 // 256 MiB

// decodeConfig holds configuration for opening and reading an archive.
type decodeConfig struct {
	compression   Compression
	maxMemberSize uint64
	logger        *slog.Logger
	progress      ProgressFunc
}

// DecodeOption configures archive decoding.
type DecodeOption func(*decodeConfig)

// DecodeWithCompression sets the compression service used for compressed
// members. It must match the one the archive was written with. The default
// is CompressionZlib.
func DecodeWithCompression(c Compression) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.compression = c
	}
}

// DecodeWithMaxMemberSize limits the stored and restored size of any single
// member. Larger members fail with ErrAllocation before any buffer is
// allocated. The default is DefaultMaxMemberSize; zero means no limit beyond
// the 32-bit size fields.
func DecodeWithMaxMemberSize(n uint64) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.maxMemberSize = n
	}
}

// DecodeWithLogger sets the logger for decoding.
// If not set, logging is disabled.
func DecodeWithLogger(logger *slog.Logger) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.logger = logger
	}
}

// DecodeWithProgress sets a callback that receives one event per extracted
// member.
func DecodeWithProgress(fn ProgressFunc) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.progress = fn
	}
}

// extractConfig holds configuration for extraction into a directory.
type extractConfig struct {
	sinkOpts []extract.FileSinkOption
}

// ExtractOption configures ExtractDir.
type ExtractOption func(*extractConfig)

// ExtractWithOverwrite controls whether existing files are replaced. The
// default is true; with false, members whose file already exists are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.sinkOpts = append(cfg.sinkOpts, extract.WithOverwrite(overwrite))
	}
}

// ExtractWithDirectWrites writes members straight to their final names
// instead of staging them in temp files.
func ExtractWithDirectWrites(enabled bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.sinkOpts = append(cfg.sinkOpts, extract.WithDirectWrites(enabled))
	}
}

// discardLogger is used when no logger is configured.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
