package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndShift(t *testing.T) {
	b := New()
	defer b.Release()

	b.Append([]byte("hello"))
	b.Append([]byte(" world"))
	require.Equal(t, "hello world", string(b.Bytes()))
	require.Equal(t, 11, b.Len())

	b.Shift(6)
	require.Equal(t, "world", string(b.Bytes()))

	b.Shift(100)
	require.Equal(t, 0, b.Len())
}

func TestReset(t *testing.T) {
	b := New()
	defer b.Release()

	b.Append([]byte("anything"))
	b.Reset()
	require.Equal(t, 0, b.Len())
}

func TestShiftNoOp(t *testing.T) {
	b := New()
	defer b.Release()

	b.Append([]byte("abc"))
	b.Shift(0)
	require.Equal(t, "abc", string(b.Bytes()))
	b.Shift(-1)
	require.Equal(t, "abc", string(b.Bytes()))
}
