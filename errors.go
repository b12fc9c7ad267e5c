package ccf

import (
	"errors"
	"fmt"

	"github.com/meigma/ccf/internal/compress"
)

// Sentinel errors. Every error returned by this package wraps at most one of
// these; test with errors.Is.
var (
	// ErrInvalidFormat is returned when the input is not a CCF archive or its
	// header or descriptor table is truncated.
	ErrInvalidFormat = errors.New("ccf: invalid format")

	// ErrEmptyArchive is returned when an archive declares zero members, or
	// when encoding is asked to produce one.
	ErrEmptyArchive = errors.New("ccf: archive has no members")

	// ErrCorruptData is returned when a member's stored bytes cannot be
	// restored to exactly its declared size.
	ErrCorruptData = errors.New("ccf: corrupt member data")

	// ErrAllocation is returned when a member needs a buffer larger than the
	// configured limit or the decoder's memory limit.
	ErrAllocation = errors.New("ccf: allocation limit exceeded")

	// ErrOversizeMember is returned when a size or offset does not fit its
	// 32-bit field.
	ErrOversizeMember = errors.New("ccf: member too large")

	// ErrIO is returned when reading a source or writing a destination fails.
	ErrIO = errors.New("ccf: i/o error")
)

// MemberError records a failure on a single member.
type MemberError struct {
	Op    string
	Index int
	Name  string
	Err   error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s member %d %q: %v", e.Op, e.Index, e.Name, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

// ioError marks err as an I/O failure while keeping the cause reachable.
func ioError(err error) error {
	if err == nil || errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

// decodeError maps a compression service failure onto the archive taxonomy.
func decodeError(err error) error {
	if errors.Is(err, compress.ErrMemory) {
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	return fmt.Errorf("%w: %w", ErrCorruptData, err)
}
