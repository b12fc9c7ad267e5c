// Package extract provides destinations for members read out of an archive.
package extract

import "io"

// Sink receives restored member content during extraction.
//
// Implementations determine where content is written and can filter which
// members to process.
type Sink interface {
	// ShouldProcess returns false if the member should be skipped.
	ShouldProcess(name string) bool

	// Writer returns a writer for the member's content.
	// The returned Committer must have Commit() called after a successful
	// write, or Discard() called on any error.
	Writer(name string) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called. A file-based
// implementation might write to a temp file and rename it on Commit, or
// delete it on Discard.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
