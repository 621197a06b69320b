package h2engine

// handlePing handles PING (RFC 7540 §6.7).
func (c *Connection) handlePing(fh FrameHeader, payload []byte) error {
	if fh.Stream != 0 {
		return newProtocolError(ProtocolErrorCode)
	}
	if len(payload) != 8 {
		return newProtocolError(FrameSizeErrorCode)
	}
	if fh.Flags.Has(FlagAck) {
		var p [8]byte
		copy(p[:], payload)
		return c.handler.OnPong(p)
	}
	return writeFrame(c.writev, FrameHeader{Type: FramePing, Flags: FlagAck, Stream: 0}, payload, c.remote.Get(ParamMaxFrameSize))
}
