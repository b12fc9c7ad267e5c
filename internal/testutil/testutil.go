// Package testutil provides fixtures shared by archive tests.
package testutil

import (
	"encoding/binary"
	"errors"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/meigma/ccf/internal/extract"
)

// RandomBytes returns n deterministic pseudo-random bytes for seed.
func RandomBytes(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, uint64(n))) //nolint:gosec // deterministic test data
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.UintN(256))
	}
	return b
}

// RawMember describes one member of a hand-built archive.
type RawMember struct {
	Name     string
	Offset   uint32
	DataSize uint32
	FileSize uint32
	Payload  []byte
}

// BuildRaw assembles archive bytes without going through the encoder.
// Payloads are written at Offset*chunkSize; gaps are zero-filled.
func BuildRaw(magic, chunkSize uint32, members []RawMember) []byte {
	size := 32 + 32*len(members)
	for _, m := range members {
		end := int(m.Offset)*int(chunkSize) + len(m.Payload)
		size = max(size, end)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:], magic)
	binary.LittleEndian.PutUint32(buf[16:], chunkSize)
	binary.LittleEndian.PutUint32(buf[20:], uint32(len(members))) //nolint:gosec // test sizes are small
	for i, m := range members {
		slot := buf[32+32*i:]
		copy(slot[:20], m.Name)
		binary.LittleEndian.PutUint32(slot[20:], m.Offset)
		binary.LittleEndian.PutUint32(slot[24:], m.DataSize)
		binary.LittleEndian.PutUint32(slot[28:], m.FileSize)
		copy(buf[int(m.Offset)*int(chunkSize):], m.Payload)
	}
	return buf
}

// ErrInjected is returned by FailingSource and MemorySink when told to fail.
var ErrInjected = errors.New("testutil: injected failure")

// FailingSource is an io.ReaderAt over data that fails reads touching any
// byte at or after FailAt.
type FailingSource struct {
	Data   []byte
	FailAt int64
}

// ReadAt implements io.ReaderAt.
func (s *FailingSource) ReadAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > s.FailAt {
		return 0, ErrInjected
	}
	if off >= int64(len(s.Data)) {
		return 0, io.EOF
	}
	n := copy(p, s.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// MemorySink collects extracted members in memory.
type MemorySink struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Order   []string
	Skip    map[string]bool
	FailOn  string
	discard int
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{Files: make(map[string][]byte), Skip: make(map[string]bool)}
}

// ShouldProcess implements extract.Sink.
func (s *MemorySink) ShouldProcess(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.Skip[name]
}

// Writer implements extract.Sink.
func (s *MemorySink) Writer(name string) (extract.Committer, error) {
	if name == s.FailOn {
		return nil, ErrInjected
	}
	return &memoryCommitter{sink: s, name: name}, nil
}

// Discarded returns how many writes were discarded.
func (s *MemorySink) Discarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discard
}

type memoryCommitter struct {
	sink *MemorySink
	name string
	data []byte
}

func (c *memoryCommitter) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *memoryCommitter) Commit() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.Files[c.name] = c.data
	c.sink.Order = append(c.sink.Order, c.name)
	return nil
}

func (c *memoryCommitter) Discard() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.discard++
	return nil
}
