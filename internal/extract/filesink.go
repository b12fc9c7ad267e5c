package extract

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// memberPerm is the mode given to extracted files before umask.
const memberPerm = 0o644

// FileSink writes members as flat files into a destination directory.
//
// By default, files are written to a temporary file in the destination and
// renamed to the final name on Commit, so a partially written member is never
// visible under its own name. Existing files are overwritten unless
// WithOverwrite(false) is given.
type FileSink struct {
	destDir     string
	root        *os.Root
	overwrite   bool
	directWrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite controls whether existing files are replaced.
// When false, members whose destination already exists are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// NewFileSink creates a FileSink that writes into destDir.
// The directory must exist. Close releases the directory handle.
func NewFileSink(destDir string, opts ...FileSinkOption) (*FileSink, error) {
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", destDir, err)
	}
	s := &FileSink{
		destDir:   destDir,
		root:      root,
		overwrite: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the destination directory handle.
func (s *FileSink) Close() error {
	return s.root.Close()
}

// ValidName reports whether name can be used as a flat file name inside the
// destination directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.IsLocal(name)
}

// ShouldProcess returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(name string) bool {
	if s.overwrite {
		return true
	}
	if !ValidName(name) {
		// Let Writer report the invalid name.
		return true
	}
	_, err := s.root.Lstat(name)
	return errors.Is(err, fs.ErrNotExist)
}

// Writer returns a Committer for the member named name.
func (s *FileSink) Writer(name string) (Committer, error) {
	if !ValidName(name) {
		return nil, &fs.PathError{Op: "extract", Path: name, Err: fs.ErrInvalid}
	}
	destPath := filepath.Join(s.destDir, name)

	if s.directWrite {
		file, err := s.root.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, memberPerm)
		if err != nil {
			return nil, fmt.Errorf("create file %s: %w", destPath, err)
		}
		return &directCommitter{destPath: destPath, name: name, file: file, root: s.root}, nil
	}

	tempFile, tempName, err := createTempFile(s.root, ".ccf-")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{
		destPath: destPath,
		name:     name,
		tempFile: tempFile,
		tempName: tempName,
		root:     s.root,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	name     string
	tempFile *os.File
	tempName string
	root     *os.Root
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file, applies the member mode, and renames it into place.
func (c *fileCommitter) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := c.root.Chmod(c.tempName, memberPerm); err != nil {
		_ = c.root.Remove(c.tempName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("chmod: %w", err)
	}
	if err := c.root.Rename(c.tempName, c.name); err != nil {
		_ = c.root.Remove(c.tempName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return c.root.Remove(c.tempName)
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destPath string
	name     string
	file     *os.File
	root     *os.Root
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file.
func (c *directCommitter) Commit() error {
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the file.
func (c *directCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	return c.root.Remove(c.name)
}

func createTempFile(root *os.Root, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		suffix, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		name := prefix + suffix
		f, err := root.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
