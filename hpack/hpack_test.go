package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasurni/h2engine"
)

func field(name, value string) h2engine.Header {
	return h2engine.Header{Name: []byte(name), Value: []byte(value)}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc := New(4096)
	dec := New(4096)

	in := h2engine.HeaderList{
		field(":method", "GET"),
		field(":path", "/index.html"),
		field("x-custom", "value"),
	}
	block, err := enc.Encode(nil, in)
	require.NoError(t, err)

	out, err := dec.Decode(block)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDynamicTableSurvivesAcrossBlocks(t *testing.T) {
	enc := New(4096)
	dec := New(4096)

	first := h2engine.HeaderList{field("x-session", "abcdef")}
	block1, err := enc.Encode(nil, first)
	require.NoError(t, err)
	_, err = dec.Decode(block1)
	require.NoError(t, err)

	// The second block references the dynamic-table entry the first
	// block inserted; a decoder that skipped block1 would fail here.
	block2, err := enc.Encode(nil, first)
	require.NoError(t, err)
	require.Less(t, len(block2), len(block1))

	out, err := dec.Decode(block2)
	require.NoError(t, err)
	require.Equal(t, first, out)
}

func TestDecodeGarbageFails(t *testing.T) {
	dec := New(4096)
	// An indexed-field reference far past any table entry.
	_, err := dec.Decode([]byte{0xff, 0xff, 0xff, 0xff, 0xff})
	require.Error(t, err)
}

func TestDecodeResultIsStable(t *testing.T) {
	enc := New(4096)
	dec := New(4096)

	block1, err := enc.Encode(nil, h2engine.HeaderList{field("a", "1")})
	require.NoError(t, err)
	out1, err := dec.Decode(block1)
	require.NoError(t, err)

	block2, err := enc.Encode(nil, h2engine.HeaderList{field("b", "2")})
	require.NoError(t, err)
	_, err = dec.Decode(block2)
	require.NoError(t, err)

	// out1 must not have been clobbered by the second Decode.
	require.Equal(t, h2engine.HeaderList{field("a", "1")}, out1)
}
