package h2engine

import (
	"github.com/kasurni/h2engine/internal/wire"
)

// FrameHeaderSize is the fixed size of an HTTP/2 frame header.
//
// https://httpwg.org/specs/rfc7540.html#FrameHeader
const FrameHeaderSize = 9

// FrameHeader is the parsed 9-octet frame header: 24-bit length,
// 8-bit type, 8-bit flags, 31-bit stream id (reserved top bit masked
// off on read, per RFC 7540 §4.1).
type FrameHeader struct {
	Length uint32
	Type   FrameType
	Flags  FrameFlags
	Stream uint32
}

// ParseFrameHeader reads a FrameHeader out of the first 9 bytes of b.
// b must have at least FrameHeaderSize bytes; callers check
// availability before calling this (the top-level state machine peeks
// before parsing).
func ParseFrameHeader(b []byte) FrameHeader {
	_ = b[FrameHeaderSize-1]
	return FrameHeader{
		Length: wire.BytesToUint24(b[:3]),
		Type:   FrameType(b[3]),
		Flags:  FrameFlags(b[4]),
		Stream: wire.BytesToUint32(b[5:9]) & (1<<31 - 1),
	}
}

// Encode writes the 9-octet wire form of h into dst, which must be at
// least FrameHeaderSize bytes.
func (h FrameHeader) Encode(dst []byte) {
	_ = dst[FrameHeaderSize-1]
	wire.Uint24ToBytes(dst[:3], h.Length)
	dst[3] = byte(h.Type)
	dst[4] = byte(h.Flags)
	wire.Uint32ToBytes(dst[5:9], h.Stream&(1<<31-1))
}
