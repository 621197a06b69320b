package h2engine

import "github.com/kasurni/h2engine/internal/wire"

// resetStream emits RST_STREAM(code) for s and destroys it locally via
// the reset-history path. The only errors it
// can return are a transport failure from the write itself and an
// error from the OnStreamEnd callback; the reset condition that
// triggered it is never surfaced to the caller.
func (c *Connection) resetStream(s *Stream, code ErrorCode) error {
	var payload [4]byte
	wire.Uint32ToBytes(payload[:], uint32(code))
	if err := writeFrame(c.writev, FrameHeader{Type: FrameRSTStream, Stream: s.id}, payload[:], c.remote.Get(ParamMaxFrameSize)); err != nil {
		return err
	}
	return c.endStreamByLocal(s)
}

// handleRSTStream handles RST_STREAM (RFC 7540 §6.4). The stream
// lookup runs before the size check: a malformed RST_STREAM for a
// stream we already reset ourselves is still just a late frame on a
// dead stream, and is tolerated like any other.
func (c *Connection) handleRSTStream(fh FrameHeader, payload []byte) error {
	s, tolerated := c.findOrRecentlyReset(fh.Stream, FrameRSTStream)
	if s == nil {
		if tolerated {
			return nil
		}
		return newProtocolError(ProtocolErrorCode)
	}
	if len(payload) != 4 {
		return newProtocolError(FrameSizeErrorCode)
	}
	return c.endStream(s)
}
