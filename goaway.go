package h2engine

import "github.com/kasurni/h2engine/internal/wire"

// sendGoAway emits GOAWAY(code) carrying the highest remote stream id
// we will still process, plus optional debug data. Idempotent: a
// second call is a no-op, matching the connection's single
// goaway-sent high-water mark.
func (c *Connection) sendGoAway(code ErrorCode, debug []byte) error {
	if c.goawaySent {
		return nil
	}
	c.goawaySent = true
	c.goawayHighWater = c.lastStream[sideRemote]

	payload := make([]byte, 8+len(debug))
	wire.Uint32ToBytes(payload[0:4], c.goawayHighWater)
	wire.Uint32ToBytes(payload[4:8], uint32(code))
	copy(payload[8:], debug)
	return writeFrame(c.writev, FrameHeader{Type: FrameGoAway, Stream: 0}, payload, c.remote.Get(ParamMaxFrameSize))
}

// handleGoAwayFrame handles GOAWAY (RFC 7540 §6.8): a nonzero error
// code surfaces as PROTOCOL, NO_ERROR surfaces as DISCONNECT. Either
// way the connection is done.
func (c *Connection) handleGoAwayFrame(fh FrameHeader, payload []byte) error {
	if fh.Stream != 0 {
		return newProtocolError(ProtocolErrorCode)
	}
	if len(payload) < 8 {
		return newProtocolError(FrameSizeErrorCode)
	}
	code := ErrorCode(wire.BytesToUint32(payload[4:8]))
	c.state = StateClosed
	if code != NoError {
		return newProtocolError(code)
	}
	return ErrDisconnect
}
