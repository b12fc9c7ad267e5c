package extract

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMember(t *testing.T, s *FileSink, name, content string) {
	t.Helper()
	c, err := s.Writer(name)
	require.NoError(t, err)
	_, err = c.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, c.Commit())
}

func TestValidName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"a.txt", true},
		{"README", true},
		{"name with spaces", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../escape", false},
		{"dir/file", false},
		{`dir\file`, false},
		{"/etc/passwd", false},
		{"nul\x00byte", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValidName(tt.name))
		})
	}
}

func TestFileSink_Commit(t *testing.T) {
	t.Parallel()

	for _, direct := range []bool{false, true} {
		t.Run(map[bool]string{false: "temp", true: "direct"}[direct], func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			s, err := NewFileSink(dir, WithDirectWrites(direct))
			require.NoError(t, err)
			defer s.Close()

			writeMember(t, s, "a.txt", "hello")

			got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
			require.NoError(t, err)
			assert.Equal(t, "hello", string(got))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1, "no temp files left behind")
		})
	}
}

func TestFileSink_Discard(t *testing.T) {
	t.Parallel()

	for _, direct := range []bool{false, true} {
		t.Run(map[bool]string{false: "temp", true: "direct"}[direct], func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			s, err := NewFileSink(dir, WithDirectWrites(direct))
			require.NoError(t, err)
			defer s.Close()

			c, err := s.Writer("partial.bin")
			require.NoError(t, err)
			_, err = c.Write([]byte("half"))
			require.NoError(t, err)
			require.NoError(t, c.Discard())

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestFileSink_Overwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644))

	s, err := NewFileSink(dir)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.ShouldProcess("a.txt"))
	writeMember(t, s, "a.txt", "new")

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileSink_NoOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644))

	s, err := NewFileSink(dir, WithOverwrite(false))
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.ShouldProcess("a.txt"))
	assert.True(t, s.ShouldProcess("b.txt"))
}

func TestFileSink_RejectsInvalidNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFileSink(dir)
	require.NoError(t, err)
	defer s.Close()

	for _, name := range []string{"", "../escape", "sub/file"} {
		_, err := s.Writer(name)
		var pathErr *fs.PathError
		require.ErrorAs(t, err, &pathErr, "name %q", name)
		assert.ErrorIs(t, pathErr.Err, fs.ErrInvalid)
	}

	_, statErr := os.Stat(filepath.Join(dir, "..", "escape"))
	require.Error(t, statErr)
}

func TestNewFileSink_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "open destination"))
}
