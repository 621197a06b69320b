package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint24RoundTrip(t *testing.T) {
	var b [3]byte
	Uint24ToBytes(b[:], 0xabcdef)
	require.Equal(t, uint32(0xabcdef), BytesToUint24(b[:]))
}

func TestUint32RoundTrip(t *testing.T) {
	var b [4]byte
	Uint32ToBytes(b[:], 0xdeadbeef)
	require.Equal(t, uint32(0xdeadbeef), BytesToUint32(b[:]))
}

func TestAppendUint16(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x02}, AppendUint16(nil, 0x0102))
}

func TestAppendUint32(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, AppendUint32(nil, 0x01020304))
}

func TestLowerToken(t *testing.T) {
	require.Equal(t, byte('a'), LowerToken('A'))
	require.Equal(t, byte('-'), LowerToken('-'))
	require.Equal(t, byte(0), LowerToken(' '))
	require.Equal(t, byte(0), LowerToken(':'))
}

func TestIsLowerToken(t *testing.T) {
	require.True(t, IsLowerToken([]byte("content-length")))
	require.False(t, IsLowerToken([]byte("Content-Length")))
	require.False(t, IsLowerToken([]byte("")))
	require.False(t, IsLowerToken([]byte("bad header")))
}
