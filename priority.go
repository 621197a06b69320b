package h2engine

// handlePriority handles PRIORITY (RFC 7540 §6.3): strip-only, no
// Stream state change; a frame on stream 0 or a self-dependency is
// rejected.
func (c *Connection) handlePriority(fh FrameHeader, payload []byte) error {
	if fh.Stream == 0 {
		return newProtocolError(ProtocolErrorCode)
	}
	if len(payload) != 5 {
		return newProtocolError(FrameSizeErrorCode)
	}
	_, dep, _, _, _ := stripPriorityBlock(payload)
	if dep != fh.Stream {
		return nil
	}
	if s := c.streams.find(fh.Stream); s != nil {
		return c.resetStream(s, ProtocolErrorCode)
	}
	return newProtocolError(ProtocolErrorCode)
}
