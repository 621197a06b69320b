package h2engine

// handleHeaders handles HEADERS (RFC 7540 §6.2): it may create an
// inbound stream, or accept trailers on a DATA-state stream ending
// the message. The block is HPACK-decoded first regardless of stream
// validity to preserve the shared dynamic table, then run through
// validateHeaders.
func (c *Connection) handleHeaders(fh FrameHeader, payload []byte) error {
	body := payload
	if fh.Flags.Has(FlagPadded) {
		var err error
		body, err = stripPadded(body)
		if err != nil {
			return err
		}
	}

	hasPriority := fh.Flags.Has(FlagPriority)
	var dep uint32
	if hasPriority {
		var ok bool
		body, dep, _, _, ok = stripPriorityBlock(body)
		if !ok {
			return newProtocolError(FrameSizeErrorCode)
		}
	}

	headers, err := c.hpack.Decode(body)
	if err != nil {
		c.sendGoAway(CompressionErrorCode, nil)
		return newProtocolError(CompressionErrorCode)
	}

	s := c.streams.find(fh.Stream)
	isTrailer := false

	if s == nil {
		_, tolerated := c.findOrRecentlyReset(fh.Stream, FrameHeaders)
		if tolerated {
			return nil
		}
		if c.goawaySent && fh.Stream > c.goawayHighWater {
			return nil
		}
		if c.mode == ModeH2 && !c.client && !c.goawaySent {
			s, err = c.newStream(fh.Stream, false)
			if err != nil {
				return err
			}
		} else {
			return newProtocolError(ProtocolErrorCode)
		}
	} else if s.ReadState == HalfData {
		if !fh.Flags.Has(FlagEndStream) {
			return c.resetStream(s, ProtocolErrorCode)
		}
		isTrailer = true
	} else if s.ReadState == HalfClosed {
		return c.resetStream(s, StreamClosedError)
	}

	if hasPriority && dep == fh.Stream {
		return c.resetStream(s, ProtocolErrorCode)
	}

	endStream := fh.Flags.Has(FlagEndStream)
	msg, contentLength, hasContentLength, ok := c.validateHeaders(headers, isTrailer, endStream)
	if !ok {
		return c.resetStream(s, ProtocolErrorCode)
	}

	if isTrailer {
		return c.endOfStream(s)
	}

	if hasContentLength {
		s.declareContentLength(contentLength)
	}
	msg.Final = endStream
	if err := c.handler.OnMessageHead(s.id, msg); err != nil {
		return err
	}
	if msg.Final {
		return c.endOfStream(s)
	}
	if msg.IsInformational() {
		// A 1xx head leaves the stream expecting the real one.
		return nil
	}
	s.ReadState = HalfData
	return nil
}
