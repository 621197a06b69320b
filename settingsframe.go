package h2engine

// applySettingsPayload decodes payload as a SETTINGS delta onto
// c.remote, re-validates the three settings invariants, adjusts every
// open stream's send window for a changed initial_window_size, syncs
// the HPACK encoder's table-size ceiling, and fires on_settings. Used
// both by H2_SETTINGS (the mandatory first frame) and the SETTINGS
// frame handler.
func (c *Connection) applySettingsPayload(payload []byte) error {
	prev := c.remote
	if err := ApplyDelta(&c.remote, payload); err != nil {
		ce, _ := AsConnError(err)
		c.sendGoAway(ce.Code, nil)
		return err
	}
	if code, ok := c.remote.Validate(); !ok {
		c.remote = prev
		c.sendGoAway(code, nil)
		return newProtocolError(code)
	}

	if delta := int64(c.remote.Get(ParamInitialWindowSize)) - int64(prev.Get(ParamInitialWindowSize)); delta != 0 {
		if err := c.adjustStreamWindows(delta); err != nil {
			c.sendGoAway(FlowControlErrorCode, nil)
			return err
		}
		if delta > 0 {
			if err := c.handler.OnFlowIncrease(0); err != nil {
				return err
			}
		}
	}

	if c.hpack != nil && prev.Get(ParamHeaderTableSize) != c.remote.Get(ParamHeaderTableSize) {
		limit := c.remote.Get(ParamHeaderTableSize)
		if local := c.local.Get(ParamHeaderTableSize); local < limit {
			limit = local
		}
		c.hpack.SetMaxDynamicTableSize(limit)
	}

	return c.handler.OnSettings()
}

// adjustStreamWindows applies delta to every open stream's send
// window, per RFC 7540 §6.9.2; overflowing the 2³¹−1 ceiling is a
// connection error.
func (c *Connection) adjustStreamWindows(delta int64) error {
	for i := range c.streams.bucket {
		for _, s := range c.streams.bucket[i] {
			s.WindowSend += delta
			if s.WindowSend > maxWindowSize {
				return newProtocolError(FlowControlErrorCode)
			}
		}
	}
	return nil
}

// handleSettingsFrame handles SETTINGS (RFC 7540 §6.5).
func (c *Connection) handleSettingsFrame(fh FrameHeader, payload []byte) error {
	if fh.Stream != 0 {
		return newProtocolError(ProtocolErrorCode)
	}
	if fh.Flags.Has(FlagAck) {
		if len(payload) != 0 {
			return newProtocolError(FrameSizeErrorCode)
		}
		return nil
	}
	if err := c.applySettingsPayload(payload); err != nil {
		return err
	}
	return writeFrame(c.writev, FrameHeader{Type: FrameSettings, Flags: FlagAck, Stream: 0}, nil, c.remote.Get(ParamMaxFrameSize))
}
