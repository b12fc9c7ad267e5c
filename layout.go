package ccf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/meigma/ccf/internal/sizing"
)

// Layout constants. All integer fields are little-endian.
const (
	// Magic is the first word of every archive: "CCF" followed by a zero byte.
	Magic uint32 = 0x00464343

	// HeaderSize is the size of the archive header.
	HeaderSize = 32

	// DescriptorSize is the size of one member descriptor.
	DescriptorSize = 32

	// ChunkSize is the offset granularity written by the encoder. Readers
	// honor whatever chunk size an archive declares.
	ChunkSize = 32

	// NameSize is the width of the null-padded name field.
	NameSize = 20
)

// Field offsets within the header and a descriptor.
const (
	headerMagicOff     = 0x00
	headerChunkSizeOff = 0x10
	headerCountOff     = 0x14

	descNameOff     = 0x00
	descOffsetOff   = 0x14
	descDataSizeOff = 0x18
	descFileSizeOff = 0x1c
)

// headerTemplate is the canonical header with a zero member count.
var headerTemplate = [HeaderSize]byte{
	'C', 'C', 'F', 0x00,
	headerChunkSizeOff: ChunkSize,
}

// zeroDescriptor reserves a descriptor slot until its values are known.
var zeroDescriptor [DescriptorSize]byte

// Header is the fixed 32-byte archive header.
// Bytes 4-15 and 24-31 are reserved and ignored when reading.
type Header struct {
	ChunkSize uint32
	FileCount uint32
}

// AppendBinary appends the encoded header to b.
func (h Header) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, headerTemplate[:]...)
	out := b[len(b)-HeaderSize:]
	binary.LittleEndian.PutUint32(out[headerChunkSizeOff:], h.ChunkSize)
	binary.LittleEndian.PutUint32(out[headerCountOff:], h.FileCount)
	return b, nil
}

// DataStart returns the chunk index where the data region begins: one chunk
// for the header plus one per descriptor.
func (h Header) DataStart() uint64 {
	return uint64(h.FileCount) + 1
}

// ParseHeader decodes a header. The magic and a non-zero chunk size are
// validated; a zero member count is reported by Open, not here.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < 4 || binary.LittleEndian.Uint32(b[headerMagicOff:]) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: truncated header (%d bytes)", ErrInvalidFormat, len(b))
	}
	h := Header{
		ChunkSize: binary.LittleEndian.Uint32(b[headerChunkSizeOff:]),
		FileCount: binary.LittleEndian.Uint32(b[headerCountOff:]),
	}
	if h.ChunkSize == 0 {
		return Header{}, fmt.Errorf("%w: zero chunk size", ErrInvalidFormat)
	}
	return h, nil
}

// Descriptor is the 32-byte record describing one member.
type Descriptor struct {
	// Name is at most NameSize bytes; trailing NULs are not part of it.
	Name string

	// Offset is the position of the stored payload, in chunks from the start
	// of the archive.
	Offset uint32

	// DataSize is the number of stored bytes.
	DataSize uint32

	// FileSize is the number of bytes once restored.
	FileSize uint32
}

// Compressed reports whether the stored bytes must be decompressed.
// Equal sizes are the format's only signal for a verbatim member.
func (d Descriptor) Compressed() bool {
	return d.DataSize != d.FileSize
}

// AppendBinary appends the encoded descriptor to b. Names longer than
// NameSize are truncated.
func (d Descriptor) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, zeroDescriptor[:]...)
	d.put(b[len(b)-DescriptorSize:])
	return b, nil
}

// put writes d into a DescriptorSize slot.
func (d Descriptor) put(slot []byte) {
	_ = slot[DescriptorSize-1]
	name, _ := TruncateName(d.Name)
	n := copy(slot[descNameOff:descNameOff+NameSize], name)
	clear(slot[descNameOff+n : descNameOff+NameSize])
	binary.LittleEndian.PutUint32(slot[descOffsetOff:], d.Offset)
	binary.LittleEndian.PutUint32(slot[descDataSizeOff:], d.DataSize)
	binary.LittleEndian.PutUint32(slot[descFileSizeOff:], d.FileSize)
}

// ParseDescriptor decodes one descriptor from the first DescriptorSize bytes of b.
func ParseDescriptor(b []byte) (Descriptor, error) {
	if len(b) < DescriptorSize {
		return Descriptor{}, fmt.Errorf("%w: truncated descriptor (%d bytes)", ErrInvalidFormat, len(b))
	}
	name := b[descNameOff : descNameOff+NameSize]
	return Descriptor{
		Name:     string(bytes.TrimRight(name, "\x00")),
		Offset:   binary.LittleEndian.Uint32(b[descOffsetOff:]),
		DataSize: binary.LittleEndian.Uint32(b[descDataSizeOff:]),
		FileSize: binary.LittleEndian.Uint32(b[descFileSizeOff:]),
	}, nil
}

// TruncateName cuts name to NameSize bytes and reports whether anything was
// dropped.
func TruncateName(name string) (string, bool) {
	if len(name) <= NameSize {
		return name, false
	}
	return name[:NameSize], true
}

// advanceCursor returns the chunk index following a payload of dataSize bytes
// that starts at cursor. It always reserves dataSize/ChunkSize + 1 chunks, so
// a payload that is an exact multiple of ChunkSize is followed by one full
// chunk of padding.
func advanceCursor(cursor, dataSize uint32) (uint32, error) {
	next, ok := sizing.AddUint64(uint64(cursor), uint64(dataSize)/ChunkSize+1)
	if !ok || next > uint64(^uint32(0)) {
		return 0, fmt.Errorf("%w: archive exceeds %d chunks", ErrOversizeMember, uint64(^uint32(0)))
	}
	return uint32(next), nil //nolint:gosec // checked above
}
