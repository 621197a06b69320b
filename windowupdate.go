package h2engine

import "github.com/kasurni/h2engine/internal/wire"

// handleWindowUpdate handles WINDOW_UPDATE (RFC 7540 §6.9): stream 0
// updates the connection window, stream > 0 updates that stream's
// send window. Overflow past 2^31-1 resets the stream with
// FLOW_CONTROL_ERROR.
func (c *Connection) handleWindowUpdate(fh FrameHeader, payload []byte) error {
	if len(payload) != 4 {
		return newProtocolError(FrameSizeErrorCode)
	}
	inc := wire.BytesToUint32(payload) &^ (1 << 31)
	if inc == 0 {
		return newProtocolError(ProtocolErrorCode)
	}

	if fh.Stream == 0 {
		c.windowSendConn += int64(inc)
		if c.windowSendConn > maxWindowSize {
			return newProtocolError(FlowControlErrorCode)
		}
		return c.handler.OnFlowIncrease(0)
	}

	s, tolerated := c.findOrRecentlyReset(fh.Stream, FrameWindowUpdate)
	if s == nil {
		if tolerated {
			return nil
		}
		return newProtocolError(ProtocolErrorCode)
	}
	s.WindowSend += int64(inc)
	if s.WindowSend > maxWindowSize {
		return c.resetStream(s, FlowControlErrorCode)
	}
	return c.handler.OnFlowIncrease(fh.Stream)
}
