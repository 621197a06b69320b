package h2engine

// handleContinuation rejects any CONTINUATION that reaches a handler:
// it is a protocol error by construction, because the frame-read
// state's coalescing step (fsm_h2.go)
// folds every CONTINUATION following a HEADERS/PUSH_PROMISE into that
// frame's payload before dispatch ever runs.
func (c *Connection) handleContinuation(FrameHeader, []byte) error {
	return newProtocolError(ProtocolErrorCode)
}
