package ccf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/meigma/ccf/internal/compress"
	"github.com/meigma/ccf/internal/sizing"
)

// Archive provides read access to a CCF archive.
//
// Open validates the header and loads the descriptor table; member data is
// read on demand. An Archive is safe for concurrent reads if its source is.
type Archive struct {
	src         io.ReaderAt
	size        int64
	header      Header
	descriptors []Descriptor
	codec       compress.Codec
	cfg         decodeConfig
}

// Open reads the header and descriptor table from src, which holds size bytes.
func Open(src io.ReaderAt, size int64, opts ...DecodeOption) (*Archive, error) {
	cfg := decodeConfig{
		compression:   CompressionZlib,
		maxMemberSize: DefaultMaxMemberSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidFormat, size)
	}
	a := &Archive{src: src, size: size, cfg: cfg}

	head := make([]byte, min(size, HeaderSize))
	if err := a.readFull(head, 0); err != nil {
		return nil, err
	}
	header, err := ParseHeader(head)
	if err != nil {
		return nil, err
	}
	if header.FileCount == 0 {
		return nil, ErrEmptyArchive
	}
	a.header = header

	tableSize := uint64(header.FileCount) * DescriptorSize
	if _, _, ok := sizing.Range(1, HeaderSize, tableSize, size); !ok {
		return nil, fmt.Errorf("%w: descriptor table for %d members exceeds archive size %d",
			ErrInvalidFormat, header.FileCount, size)
	}
	table := make([]byte, tableSize)
	if err := a.readFull(table, HeaderSize); err != nil {
		return nil, err
	}
	a.descriptors = make([]Descriptor, header.FileCount)
	for i := range a.descriptors {
		d, err := ParseDescriptor(table[i*DescriptorSize:])
		if err != nil {
			return nil, err
		}
		a.descriptors[i] = d
		a.log().Debug("descriptor",
			"index", i,
			"name", d.Name,
			"offset", d.Offset,
			"data_size", d.DataSize,
			"file_size", d.FileSize,
		)
	}

	var copts []compress.Option
	if cfg.maxMemberSize != 0 {
		copts = append(copts, compress.WithMaxMemory(cfg.maxMemberSize))
	}
	a.codec, err = compress.New(cfg.compression, copts...)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// OpenBytes opens an archive held in memory.
func OpenBytes(data []byte, opts ...DecodeOption) (*Archive, error) {
	return Open(bytes.NewReader(data), int64(len(data)), opts...)
}

// File is an Archive backed by an open file. Close releases the handle.
type File struct {
	*Archive
	f *os.File
}

// OpenFile opens the archive at path.
func OpenFile(path string, opts ...DecodeOption) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, ioError(err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // stat error takes precedence
		return nil, ioError(err)
	}
	a, err := Open(f, info.Size(), opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // open error takes precedence
		return nil, err
	}
	return &File{Archive: a, f: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Len returns the number of members.
func (a *Archive) Len() int {
	return len(a.descriptors)
}

// Descriptors returns a copy of the descriptor table in archive order.
func (a *Archive) Descriptors() []Descriptor {
	return slices.Clone(a.descriptors)
}

// Descriptor returns the descriptor at index i.
func (a *Archive) Descriptor(i int) Descriptor {
	return a.descriptors[i]
}

// Lookup returns the index of the member named name. When truncated names
// collide, the last one wins, matching what extraction leaves on disk.
func (a *Archive) Lookup(name string) (int, bool) {
	for i := len(a.descriptors) - 1; i >= 0; i-- {
		if a.descriptors[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// ReadMember restores the content of the member at index i.
func (a *Archive) ReadMember(i int) ([]byte, error) {
	if i < 0 || i >= len(a.descriptors) {
		return nil, fmt.Errorf("member index %d out of range [0,%d)", i, len(a.descriptors))
	}
	d := a.descriptors[i]
	data, err := a.readMember(d)
	if err != nil {
		return nil, &MemberError{Op: "read", Index: i, Name: d.Name, Err: err}
	}
	return data, nil
}

func (a *Archive) readMember(d Descriptor) ([]byte, error) {
	if limit := a.cfg.maxMemberSize; limit != 0 && (uint64(d.DataSize) > limit || uint64(d.FileSize) > limit) {
		return nil, fmt.Errorf("%w: member needs %d bytes, limit is %d",
			ErrAllocation, max(d.DataSize, d.FileSize), limit)
	}

	start, _, ok := sizing.Range(uint64(d.Offset), uint64(a.header.ChunkSize), uint64(d.DataSize), a.size)
	if !ok {
		return nil, fmt.Errorf("%w: payload at chunk %d (%d bytes) exceeds archive size %d",
			ErrCorruptData, d.Offset, d.DataSize, a.size)
	}
	stored := make([]byte, d.DataSize)
	if err := a.readFull(stored, int64(start)); err != nil { //nolint:gosec // start is within size
		return nil, err
	}
	if !d.Compressed() {
		return stored, nil
	}

	size, err := sizing.ToInt(uint64(d.FileSize), ErrAllocation)
	if err != nil {
		return nil, fmt.Errorf("%w: member restores to %d bytes", err, d.FileSize)
	}
	out, err := a.codec.Decompress(stored, size)
	if err != nil {
		return nil, decodeError(err)
	}
	return out, nil
}

// Members restores every member in archive order.
func (a *Archive) Members(ctx context.Context) ([]Member, error) {
	members := make([]Member, 0, len(a.descriptors))
	for i, d := range a.descriptors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := a.ReadMember(i)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: d.Name, Data: data})
	}
	return members, nil
}

// readFull reads exactly len(p) bytes at off.
func (a *Archive) readFull(p []byte, off int64) error {
	n, err := a.src.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return ioError(err)
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.cfg.logger == nil {
		return discardLogger()
	}
	return a.cfg.logger
}

// Decode validates data as an archive and restores every member in order.
func Decode(ctx context.Context, data []byte, opts ...DecodeOption) ([]Member, error) {
	a, err := OpenBytes(data, opts...)
	if err != nil {
		return nil, err
	}
	return a.Members(ctx)
}
