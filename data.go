package h2engine

// handleData handles DATA (RFC 7540 §6.1): connection-level flow is
// refilled by the full padded length regardless of stream validity;
// stream-level accounting, window checks and end-of-stream all happen
// only for a live, DATA-state stream.
func (c *Connection) handleData(fh FrameHeader, payload []byte) error {
	full := len(payload)
	body := payload
	if fh.Flags.Has(FlagPadded) {
		var err error
		body, err = stripPadded(payload)
		if err != nil {
			return err
		}
	}
	padAmount := full - len(body)

	if int64(full) > c.windowRecvConn {
		c.sendGoAway(FlowControlErrorCode, nil)
		return newProtocolError(FlowControlErrorCode)
	}
	c.windowRecvConn -= int64(full)

	s, tolerated := c.findOrRecentlyReset(fh.Stream, FrameData)
	switch {
	case s == nil && !tolerated:
		return newProtocolError(ProtocolErrorCode)
	case s != nil && s.ReadState != HalfData:
		if err := c.resetStream(s, StreamClosedError); err != nil {
			return err
		}
		s = nil
	case s != nil && int64(full) > s.WindowRecv:
		if err := c.resetStream(s, FlowControlErrorCode); err != nil {
			return err
		}
		s = nil
	case s != nil:
		s.WindowRecv -= int64(full)
		if s.hasDeclaredLength() {
			s.RemainingPayload -= int64(len(body))
		}
		if err := c.handler.OnMessageData(fh.Stream, body); err != nil {
			return err
		}
		if fh.Flags.Has(FlagEndStream) {
			if err := c.endOfStream(s); err != nil {
				return err
			}
			s = nil
		}
	}

	if full > 0 {
		if err := c.openFlowConn(uint32(full)); err != nil {
			return err
		}
	}
	if s != nil && s.ReadState != HalfClosed {
		refill := uint32(full)
		if c.cfg.ManualFlowControl {
			refill = uint32(padAmount)
		}
		if refill > 0 {
			if err := c.openFlowStream(s, refill); err != nil {
				return err
			}
		}
	}
	return nil
}
