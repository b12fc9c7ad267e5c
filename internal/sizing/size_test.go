package sizing

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestToUint32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      int
		want    uint32
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"small", 100, 100, false},
		{"max", math.MaxUint32, math.MaxUint32, false},
		{"one past max", math.MaxUint32 + 1, 0, true},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ToUint32(tt.in, errOverflow)
			if tt.wantErr {
				require.ErrorIs(t, err, errOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToInt(t *testing.T) {
	t.Parallel()

	got, err := ToInt(0xFFFFFFF0, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, 0xFFFFFFF0, got)

	_, err = ToInt(math.MaxUint64, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}

func TestMulUint64(t *testing.T) {
	t.Parallel()

	got, ok := MulUint64(3, 32)
	require.True(t, ok)
	assert.Equal(t, uint64(96), got)

	got, ok = MulUint64(0, math.MaxUint64)
	require.True(t, ok)
	assert.Equal(t, uint64(0), got)

	_, ok = MulUint64(math.MaxUint64, 2)
	assert.False(t, ok)
}

func TestRange(t *testing.T) {
	t.Parallel()

	start, end, ok := Range(3, 32, 10, 106)
	require.True(t, ok)
	assert.Equal(t, uint64(96), start)
	assert.Equal(t, uint64(106), end)

	_, _, ok = Range(3, 32, 11, 106)
	assert.False(t, ok, "range past source end")

	_, _, ok = Range(math.MaxUint32, math.MaxUint32, math.MaxUint64, math.MaxInt64)
	assert.False(t, ok, "overflowing range")

	_, _, ok = Range(0, 32, 0, -1)
	assert.False(t, ok, "negative source size")
}

func TestReadAllWithLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadAllWithLimit(bytes.NewReader([]byte("abcd")), 4, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), data)

	_, err = ReadAllWithLimit(bytes.NewReader([]byte("abcde")), 4, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}
