package ccf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/ccf/internal/compress"
	"github.com/meigma/ccf/internal/sizing"
)

// Writer accumulates members and encodes them into a CCF archive.
//
// Members keep the order in which they are added. A Writer is not safe for
// concurrent use.
type Writer struct {
	cfg       encodeConfig
	members   []Member
	truncated []string
}

// NewWriter creates an empty Writer.
func NewWriter(opts ...EncodeOption) *Writer {
	cfg := encodeConfig{compression: CompressionZlib}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Writer{cfg: cfg}
}

// Add appends a member. The name is cut to NameSize bytes; the return value
// reports whether that dropped anything. Truncated names are not checked for
// collisions.
func (w *Writer) Add(name string, data []byte) (truncated bool) {
	stored, truncated := TruncateName(name)
	if truncated {
		w.truncated = append(w.truncated, name)
		w.log().Warn("member name truncated", "name", name, "stored", stored)
	}
	w.members = append(w.members, Member{Name: stored, Data: data})
	return truncated
}

// AddFile reads the file at path and adds it under its base name.
func (w *Writer) AddFile(path string) (truncated bool, err error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return false, ioError(err)
	}
	defer f.Close()

	data, err := sizing.ReadAllWithLimit(f, math.MaxUint32, ErrOversizeMember)
	if err != nil {
		if errors.Is(err, ErrOversizeMember) {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		return false, ioError(err)
	}
	return w.Add(filepath.Base(path), data), nil
}

// Len returns the number of members added so far.
func (w *Writer) Len() int {
	return len(w.members)
}

// Truncated returns the original names of members whose names were cut.
func (w *Writer) Truncated() []string {
	return append([]string(nil), w.truncated...)
}

// Encode lays out every member and returns the archive bytes together with
// the final descriptors.
//
// Members are compressed first (concurrently when EncodeWithWorkers allows),
// then offsets are assigned in member order, because each offset depends on
// the stored size of the member before it. The descriptor table is reserved
// with zero-filled slots and backfilled as each member is placed.
func (w *Writer) Encode(ctx context.Context) ([]byte, []Descriptor, error) {
	n := len(w.members)
	if n == 0 {
		return nil, nil, ErrEmptyArchive
	}
	if n >= math.MaxUint32 {
		return nil, nil, fmt.Errorf("%w: %d members", ErrOversizeMember, n)
	}

	w.log().Info("encoding archive", "members", n, "compression", w.cfg.compression.String())

	stored, err := w.compressAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	header := Header{ChunkSize: ChunkSize, FileCount: uint32(n)} //nolint:gosec // checked above
	buf, err := header.AppendBinary(make([]byte, 0, w.estimateSize(stored)))
	if err != nil {
		return nil, nil, err
	}
	for range n {
		buf = append(buf, zeroDescriptor[:]...)
	}

	descriptors := make([]Descriptor, n)
	cursor := uint32(header.DataStart()) //nolint:gosec // n < MaxUint32
	for i, m := range w.members {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		d := Descriptor{
			Name:     m.Name,
			Offset:   cursor,
			DataSize: uint32(len(stored[i])), //nolint:gosec // checked in compressMember
			FileSize: uint32(len(m.Data)),    //nolint:gosec // checked in compressMember
		}
		buf = append(buf, stored[i]...)
		stored[i] = nil

		next, err := advanceCursor(cursor, d.DataSize)
		if err != nil {
			return nil, nil, &MemberError{Op: "encode", Index: i, Name: m.Name, Err: err}
		}
		cursor = next
		if i < n-1 {
			// Pad to the next member's chunk; the last member is left unpadded.
			end := int(cursor) * ChunkSize
			buf = append(buf, make([]byte, end-len(buf))...)
		}

		d.put(buf[HeaderSize+i*DescriptorSize:])
		descriptors[i] = d

		w.log().Debug("member placed",
			"index", i,
			"name", d.Name,
			"offset", d.Offset,
			"data_size", d.DataSize,
			"file_size", d.FileSize,
			"compressed", d.Compressed(),
		)
		w.reportProgress(StageWriting, i, d, i+1, n)
	}

	w.log().Info("archive encoded", "members", n, "size", len(buf))
	return buf, descriptors, nil
}

// WriteTo encodes the archive and writes it to out.
func (w *Writer) WriteTo(ctx context.Context, out io.Writer) ([]Descriptor, error) {
	buf, descriptors, err := w.Encode(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := out.Write(buf); err != nil {
		return nil, ioError(err)
	}
	return descriptors, nil
}

// WriteFile encodes the archive and writes it to path, replacing any existing
// file. A failure while writing can leave a partial file at path.
func (w *Writer) WriteFile(ctx context.Context, path string) ([]Descriptor, error) {
	buf, descriptors, err := w.Encode(ctx)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, ioError(err)
	}
	if _, err := f.Write(buf); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return nil, ioError(err)
	}
	if err := f.Close(); err != nil {
		return nil, ioError(err)
	}
	return descriptors, nil
}

// compressAll runs every member through the compression service and returns
// the bytes to store for each.
func (w *Writer) compressAll(ctx context.Context) ([][]byte, error) {
	opts := []compress.Option{}
	if w.cfg.levelSet {
		opts = append(opts, compress.WithLevel(w.cfg.level))
	}
	codec, err := compress.New(w.cfg.compression, opts...)
	if err != nil {
		return nil, err
	}

	n := len(w.members)
	stored := make([][]byte, n)

	workers := w.cfg.workers
	if workers < 1 {
		workers = 1
	}
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range w.members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			payload, err := compressMember(codec, m.Data)
			if err != nil {
				return &MemberError{Op: "compress", Index: i, Name: m.Name, Err: err}
			}
			stored[i] = payload
			w.reportProgress(StageCompressing, i, Descriptor{
				Name:     m.Name,
				DataSize: uint32(len(payload)), //nolint:gosec // checked in compressMember
				FileSize: uint32(len(m.Data)),  //nolint:gosec // checked in compressMember
			}, int(done.Add(1)), n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stored, nil
}

// compressMember returns the bytes to store for data: the compressed
// candidate when it is strictly smaller, otherwise data itself.
func compressMember(codec compress.Codec, data []byte) ([]byte, error) {
	if _, err := sizing.ToUint32(len(data), ErrOversizeMember); err != nil {
		return nil, fmt.Errorf("%w: %d bytes", err, len(data))
	}
	if codec.Algorithm() == compress.None {
		return data, nil
	}
	candidate, err := codec.Compress(data)
	if errors.Is(err, compress.ErrIncompressible) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	// An equal-length candidate would read back as a verbatim member.
	if len(candidate) >= len(data) {
		return data, nil
	}
	return candidate, nil
}

// estimateSize returns the archive size for the given stored payloads.
func (w *Writer) estimateSize(stored [][]byte) int {
	size := HeaderSize + len(stored)*DescriptorSize
	for _, p := range stored {
		size += (len(p)/ChunkSize + 1) * ChunkSize
	}
	return size
}

// reportProgress sends a progress event if a callback is configured.
func (w *Writer) reportProgress(stage ProgressStage, index int, d Descriptor, done, total int) {
	if w.cfg.progress == nil {
		return
	}
	w.cfg.progress(ProgressEvent{
		Stage:        stage,
		Index:        index,
		Name:         d.Name,
		DataSize:     d.DataSize,
		FileSize:     d.FileSize,
		MembersDone:  done,
		MembersTotal: total,
	})
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.cfg.logger == nil {
		return discardLogger()
	}
	return w.cfg.logger
}

// Encode builds an archive from members in order.
func Encode(ctx context.Context, members []Member, opts ...EncodeOption) ([]byte, error) {
	w := NewWriter(opts...)
	for _, m := range members {
		w.Add(m.Name, m.Data)
	}
	buf, _, err := w.Encode(ctx)
	return buf, err
}
