package h2engine

// stepH2Frame is the H2_FRAME state handler: parse one frame header,
// wait for its payload to be fully buffered, coalesce
// a HEADERS/PUSH_PROMISE missing END_HEADERS with its following
// CONTINUATIONs, fire the observability hook, dispatch, and remain in
// H2_FRAME.
func (c *Connection) stepH2Frame() (step, error) {
	buf := c.in.Bytes()
	if len(buf) < FrameHeaderSize {
		return needMore()
	}
	fh := ParseFrameHeader(buf[:FrameHeaderSize])
	if fh.Length > c.local.Get(ParamMaxFrameSize) {
		c.sendGoAway(FrameSizeErrorCode, nil)
		return step{}, newProtocolError(FrameSizeErrorCode)
	}
	total := FrameHeaderSize + int(fh.Length)
	if len(buf) < total {
		return needMore()
	}
	payload := buf[FrameHeaderSize:total]

	if (fh.Type == FrameHeaders || fh.Type == FramePushPromise) && !fh.Flags.Has(FlagEndHeaders) {
		joined, consumed, err := c.coalesceContinuations(buf, fh, total)
		if err != nil {
			return step{}, err
		}
		if joined == nil {
			return needMore()
		}
		fh = joined.header
		payload = joined.payload
		total = consumed
	}

	if err := c.handler.OnFrame(FrameInfo{Type: fh.Type, Flags: fh.Flags, Stream: fh.Stream, Length: len(payload)}); err != nil {
		return step{}, err
	}
	if err := c.dispatch(fh, payload); err != nil {
		return step{}, err
	}

	c.in.Shift(total)
	return gotoState(StateH2Frame)
}

// coalescedFrame is the synthetic HEADERS/PUSH_PROMISE produced by
// folding a run of CONTINUATIONs into the frame that started them.
type coalescedFrame struct {
	header  FrameHeader
	payload []byte
}

// coalesceContinuations scans forward from firstTotal through buf
// collecting CONTINUATION frames on the same stream until one carries
// END_HEADERS, building a single joined payload. Returns (nil, 0, nil)
// if more buffered data is needed; a non-nil error means a GOAWAY has
// already been queued.
func (c *Connection) coalesceContinuations(buf []byte, first FrameHeader, firstTotal int) (*coalescedFrame, int, error) {
	joined := append([]byte(nil), buf[FrameHeaderSize:firstTotal]...)
	offset := firstTotal
	count := 0

	for {
		if len(buf) < offset+FrameHeaderSize {
			return nil, 0, nil
		}
		ch := ParseFrameHeader(buf[offset : offset+FrameHeaderSize])
		if ch.Type != FrameContinuation || ch.Stream != first.Stream {
			c.sendGoAway(ProtocolErrorCode, nil)
			return nil, 0, newProtocolError(ProtocolErrorCode)
		}
		if ch.Length > c.local.Get(ParamMaxFrameSize) {
			c.sendGoAway(FrameSizeErrorCode, nil)
			return nil, 0, newProtocolError(FrameSizeErrorCode)
		}
		count++
		if count > MaxContinuations {
			c.sendGoAway(EnhanceYourCalm, nil)
			return nil, 0, newProtocolError(EnhanceYourCalm)
		}

		segTotal := offset + FrameHeaderSize + int(ch.Length)
		if len(buf) < segTotal {
			return nil, 0, nil
		}
		joined = append(joined, buf[offset+FrameHeaderSize:segTotal]...)
		offset = segTotal

		if ch.Flags.Has(FlagEndHeaders) {
			first.Flags |= FlagEndHeaders
			return &coalescedFrame{header: first, payload: joined}, offset, nil
		}
	}
}
