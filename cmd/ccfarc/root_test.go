package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/ccf"
	"github.com/meigma/ccf/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stderr.String(), err
}

func writeInputs(t *testing.T, dir string) map[string][]byte {
	t.Helper()

	files := map[string][]byte{
		"readme.txt": bytes.Repeat([]byte("ccf "), 500),
		"noise.bin":  testutil.RandomBytes(3, 777),
		"empty":      {},
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	return files
}

func TestArchive(t *testing.T) {
	t.Parallel()

	for _, compression := range []string{"zlib", "zstd", "lz4", "none"} {
		t.Run(compression, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			files := writeInputs(t, dir)
			out := filepath.Join(dir, "bundle.ccf")

			args := []string{"-o", out, "-c", compression, "-j", "2"}
			for _, name := range []string{"readme.txt", "noise.bin", "empty"} {
				args = append(args, filepath.Join(dir, name))
			}
			stderr, err := execute(t, args...)
			require.NoError(t, err)
			assert.Contains(t, stderr, "readme.txt")
			assert.Contains(t, stderr, "[3/3]")

			alg, err := ccf.ParseCompression(compression)
			require.NoError(t, err)
			f, err := ccf.OpenFile(out, ccf.DecodeWithCompression(alg))
			require.NoError(t, err)
			defer f.Close()

			members, err := f.Members(context.Background())
			require.NoError(t, err)
			require.Len(t, members, 3)
			assert.Equal(t, "readme.txt", members[0].Name)
			assert.Equal(t, "noise.bin", members[1].Name)
			assert.Equal(t, "empty", members[2].Name)
			for _, m := range members {
				assert.Equal(t, files[m.Name], m.Data, m.Name)
			}
		})
	}
}

func TestArchive_NoneStoresVerbatim(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInputs(t, dir)
	out := filepath.Join(dir, "raw.ccf")

	_, err := execute(t, "-o", out, "--compression", "none", filepath.Join(dir, "readme.txt"))
	require.NoError(t, err)

	f, err := ccf.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	d := f.Descriptor(0)
	assert.False(t, d.Compressed())
	assert.Equal(t, uint32(2000), d.DataSize)
}

func TestArchive_LevelZero(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInputs(t, dir)
	input := filepath.Join(dir, "readme.txt")

	tests := []struct {
		name           string
		args           []string
		wantCompressed bool
	}{
		{name: "default level", args: nil, wantCompressed: true},
		{name: "level zero stores", args: []string{"--level", "0"}, wantCompressed: false},
	}
	for i, tt := range tests {
		out := filepath.Join(dir, fmt.Sprintf("level-%d.ccf", i))
		_, err := execute(t, append(append([]string{"-o", out}, tt.args...), input)...)
		require.NoError(t, err, tt.name)

		f, err := ccf.OpenFile(out)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.wantCompressed, f.Descriptor(0).Compressed(), tt.name)
		require.NoError(t, f.Close())
	}
}

func TestArchive_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	t.Chdir(dir)

	_, err := execute(t, "readme.txt")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, defaultOutput))
	require.NoError(t, err)
}

func TestArchive_TruncatesLongNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	long := filepath.Join(dir, "a-very-long-file-name-indeed.txt")
	require.NoError(t, os.WriteFile(long, []byte("data"), 0o600))
	out := filepath.Join(dir, "long.ccf")

	stderr, err := execute(t, "-o", out, long)
	require.NoError(t, err)
	assert.Contains(t, stderr, "truncat")

	f, err := ccf.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "a-very-long-file-nam", f.Descriptor(0).Name)
}

func TestArchive_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInputs(t, dir)
	input := filepath.Join(dir, "readme.txt")

	tests := []struct {
		name string
		args []string
	}{
		{name: "no inputs", args: []string{"-o", filepath.Join(dir, "x.ccf")}},
		{name: "missing input", args: []string{"-o", filepath.Join(dir, "y.ccf"), filepath.Join(dir, "nope")}},
		{name: "unknown compression", args: []string{"-o", filepath.Join(dir, "z.ccf"), "-c", "brotli", input}},
		{name: "bad level", args: []string{"-o", filepath.Join(dir, "w.ccf"), "--level", "42", input}},
		{name: "unwritable output", args: []string{"-o", filepath.Join(dir, "missing", "out.ccf"), input}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}
