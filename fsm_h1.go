package h2engine

// stepH1Head is the H1_HEAD state handler: parse one request or
// response head, apply the h1→unified-message transforms, and pick
// the next state from the resulting body length.
func (c *Connection) stepH1Head() (step, error) {
	buf := c.in.Bytes()

	if !c.client && !c.cfg.DisallowH2PriorKnowledge && c.h1Stream == nil && hasPrefix(preface, buf) {
		if len(buf) < len(preface) {
			return needMore()
		}
		c.mode = ModeH2
		return gotoState(StateH2Init)
	}

	if !c.client && c.h1Stream != nil {
		// The previous request hasn't been answered yet; leave any
		// pipelined bytes buffered until it has.
		return needMore()
	}

	limit := (MaxContinuations + 1) * int(c.local.Get(ParamMaxFrameSize))
	if len(buf) > limit {
		return step{}, newProtocolError(ProtocolErrorCode)
	}

	var (
		n, minorVersion int
		msg             *Message
		err             error
	)
	if c.client {
		n, minorVersion, msg, err = c.headParser.ParseResponse(buf)
	} else {
		n, minorVersion, msg, err = c.headParser.ParseRequest(buf)
	}
	if err == ErrHeadNeedMore {
		return needMore()
	}
	if err != nil || minorVersion < 0 || minorVersion > 1 {
		return step{}, newProtocolError(ProtocolErrorCode)
	}

	next, err := c.finishH1Head(msg)
	if err != nil {
		return step{}, err
	}
	c.in.Shift(n)
	return next, nil
}

// finishH1Head runs the h1-to-unified-message transforms on a freshly
// parsed Message, delivers on_message_head (and on_upgrade, if applicable),
// and returns the FSM's next state.
func (c *Connection) finishH1Head(msg *Message) (step, error) {
	if !c.client {
		msg.Scheme = []byte("unknown")
		msg.Authority = []byte("unknown")
	}

	var (
		hasContentLength   bool
		contentLength      uint64
		contentLengthSeen  bool
		chunked            bool
		upgradeHeaderValue []byte
		hasUpgradeHeader   bool
	)

	kept := msg.Headers[:0]
	for _, h := range msg.Headers {
		switch {
		case string(h.Name) == string(strHost):
			if !c.client {
				msg.Authority = h.Value
			}
			kept = append(kept, h)
		case string(h.Name) == string(strHTTP2Settings):
			// TODO: decode the base64 payload into initial remote
			// settings instead of stripping it.
		case string(h.Name) == string(strUpgrade):
			hasUpgradeHeader = true
			upgradeHeaderValue = h.Value
			// Kept or dropped below once we know which upgrade path applies.
		case string(h.Name) == string(strContentLength):
			n, ok := parseUintDecimal(h.Value)
			if !ok {
				return step{}, newProtocolError(ProtocolErrorCode)
			}
			if contentLengthSeen && n != contentLength {
				return step{}, newProtocolError(ProtocolErrorCode)
			}
			contentLengthSeen = true
			contentLength = n
			kept = append(kept, h)
		case string(h.Name) == string(strTransferEncoding):
			v := h.Value
			if string(v) == string(strIdentity) {
				continue
			}
			chunked = true
			if v = trimChunkedToken(v); len(v) == 0 {
				continue
			}
			kept = append(kept, Header{Name: h.Name, Value: v})
		default:
			kept = append(kept, h)
		}
	}
	msg.Headers = kept
	if chunked && contentLengthSeen {
		// Chunked framing wins; the conflicting Content-Length is
		// dropped outright.
		filtered := msg.Headers[:0]
		for _, h := range msg.Headers {
			if string(h.Name) == string(strContentLength) {
				continue
			}
			filtered = append(filtered, h)
		}
		msg.Headers = filtered
		hasContentLength = false
	} else {
		hasContentLength = contentLengthSeen
	}

	fireUpgrade := false
	if hasUpgradeHeader {
		switch {
		case c.mode == ModeH2:
			// Post-upgrade residue on the h1 side; drop silently.
		case !c.client && string(upgradeHeaderValue) == string(strH2C) && c.h1RequestCount == 0 &&
			!c.cfg.DisallowH2Upgrade:
			if err := c.beginH2CUpgrade(); err != nil {
				return step{}, err
			}
		default:
			if !c.client {
				fireUpgrade = true
			}
			msg.Headers = append(msg.Headers, Header{Name: strUpgrade, Value: upgradeHeaderValue})
		}
	}

	if msg.IsInformational() && msg.Code != 101 {
		if c.h1Stream == nil {
			return step{}, newProtocolError(ProtocolErrorCode)
		}
		if err := c.handler.OnMessageHead(c.h1Stream.ID(), msg); err != nil {
			return step{}, err
		}
		return gotoState(StateH1Head)
	}

	var s *Stream
	if c.client {
		s = c.h1Stream
		if s == nil {
			var err error
			s, err = c.beginH1Stream(true)
			if err != nil {
				return step{}, err
			}
		}
	} else {
		var err error
		s, err = c.beginH1Stream(false)
		if err != nil {
			return step{}, err
		}
		c.h1RequestCount++
	}

	switch {
	case msg.Code == 101:
		c.h1RemainingPayload = h1PayloadTunnel
	case s.ReadingHeadResponse:
		c.h1RemainingPayload = 0
	case chunked:
		c.h1RemainingPayload = h1PayloadChunked
	case hasContentLength:
		c.h1RemainingPayload = int64(contentLength)
	default:
		c.h1RemainingPayload = 0
	}

	msg.Final = c.h1RemainingPayload == 0
	if err := c.handler.OnMessageHead(s.ID(), msg); err != nil {
		return step{}, err
	}
	if fireUpgrade {
		if err := c.handler.OnUpgrade(); err != nil {
			return step{}, err
		}
	}

	switch c.h1RemainingPayload {
	case 0:
		return gotoState(StateH1Tail)
	case h1PayloadChunked:
		return gotoState(StateH1Chunk)
	default:
		return gotoState(StateH1Body)
	}
}

// beginH1Stream creates the single in-flight h1 message's Stream,
// bypassing the h2 stream table's parity/monotonicity machinery
// (meaningless for h1, where the same nominal id is reused message
// after message) while still firing on_stream_start symmetrically.
func (c *Connection) beginH1Stream(local bool) (*Stream, error) {
	s := &Stream{id: 1, local: local, ReadState: HalfHeaders, WriteState: HalfHeaders, RemainingPayload: noContentLength}
	c.h1Stream = s
	if err := c.handler.OnStreamStart(1); err != nil {
		c.h1Stream = nil
		return nil, err
	}
	return s, nil
}

// consumeBody implements the shared body/chunk-body consumption loop
// of H1_BODY and H1_CHUNK_BODY: drain up to h1RemainingPayload bytes,
// firing on_message_data, and move to whenDone once exhausted. A
// tunnel (−2) never exhausts on its own; Eof ends it.
func (c *Connection) consumeBody(whenDone State) (step, error) {
	if c.h1RemainingPayload == h1PayloadTunnel {
		buf := c.in.Bytes()
		if len(buf) == 0 {
			return needMore()
		}
		if err := c.handler.OnMessageData(1, buf); err != nil {
			return step{}, err
		}
		c.in.Shift(len(buf))
		return needMore()
	}

	if c.h1RemainingPayload == 0 {
		return gotoState(whenDone)
	}
	buf := c.in.Bytes()
	if len(buf) == 0 {
		return needMore()
	}
	n := len(buf)
	if int64(n) > c.h1RemainingPayload {
		n = int(c.h1RemainingPayload)
	}
	if err := c.handler.OnMessageData(1, buf[:n]); err != nil {
		return step{}, err
	}
	c.in.Shift(n)
	c.h1RemainingPayload -= int64(n)
	if c.h1RemainingPayload == 0 {
		return gotoState(whenDone)
	}
	return needMore()
}

func (c *Connection) stepH1Body() (step, error) { return c.consumeBody(StateH1Tail) }

func (c *Connection) stepH1ChunkBody() (step, error) { return c.consumeBody(StateH1ChunkTail) }

// stepH1Chunk parses a hex chunk-size line (RFC 7230 §4.1).
func (c *Connection) stepH1Chunk() (step, error) {
	buf := c.in.Bytes()
	maxLine := int(c.local.Get(ParamMaxFrameSize))

	contentEnd, total := findLineEnd(buf)
	if contentEnd < 0 {
		if len(buf) > maxLine {
			return step{}, newProtocolError(ProtocolErrorCode)
		}
		return needMore()
	}
	line := buf[:contentEnd]
	if i := indexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	size, ok := parseHexChunkSize(line)
	if !ok {
		return step{}, newProtocolError(ProtocolErrorCode)
	}

	c.in.Shift(total)
	if size == 0 {
		return gotoState(StateH1Trailers)
	}
	c.h1RemainingPayload = int64(size)
	return gotoState(StateH1ChunkBody)
}

// stepH1ChunkTail requires the CRLF following a chunk's data.
func (c *Connection) stepH1ChunkTail() (step, error) {
	buf := c.in.Bytes()
	if len(buf) < 2 {
		return needMore()
	}
	if buf[0] != '\r' || buf[1] != '\n' {
		return step{}, newProtocolError(ProtocolErrorCode)
	}
	c.in.Shift(2)
	return gotoState(StateH1Chunk)
}

// stepH1Trailers reads the trailer section up to the blank line that
// ends the chunked body; trailers are silently dropped.
//
// TODO: surface real trailer header lines.
func (c *Connection) stepH1Trailers() (step, error) {
	buf := c.in.Bytes()
	contentEnd, total := findLineEnd(buf)
	if contentEnd < 0 {
		if len(buf) > int(c.local.Get(ParamMaxFrameSize)) {
			return step{}, newProtocolError(ProtocolErrorCode)
		}
		return needMore()
	}
	c.in.Shift(total)
	if contentEnd > 0 {
		return gotoState(StateH1Trailers)
	}
	return gotoState(StateH1Tail)
}

// stepH1Tail fires on_message_tail, retires the h1 stream, and picks
// H1_HEAD or (post-upgrade) H2_PREFACE. A stream whose write half is
// still open (a server that hasn't responded yet) stays live; after a
// h2c upgrade it migrates into the stream table so the response goes
// out as an HTTP/2 HEADERS on stream 1.
func (c *Connection) stepH1Tail() (step, error) {
	if s := c.h1Stream; s != nil {
		if err := c.endOfStream(s); err != nil {
			return step{}, err
		}
		if c.mode == ModeH2 && c.h1Stream == s {
			c.streams.insert(s)
			c.lastStream[sideRemote] = s.id
			c.h1Stream = nil
		}
	}
	if c.mode == ModeH2 {
		return gotoState(StateH2Preface)
	}
	return gotoState(StateH1Head)
}

func findLineEnd(buf []byte) (contentEnd, total int) {
	for i, b := range buf {
		if b == '\n' {
			end := i
			if end > 0 && buf[end-1] == '\r' {
				end--
			}
			return end, i + 1
		}
	}
	return -1, 0
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// trimChunkedToken removes a trailing "chunked" token (plus whatever
// comma and whitespace preceded it) from a Transfer-Encoding value.
func trimChunkedToken(v []byte) []byte {
	n := len(v) - len(strChunked)
	if n < 0 || string(v[n:]) != string(strChunked) {
		return v
	}
	v = v[:n]
	for len(v) > 0 && (v[len(v)-1] == ' ' || v[len(v)-1] == '\t' || v[len(v)-1] == ',') {
		v = v[:len(v)-1]
	}
	return v
}

func parseHexChunkSize(b []byte) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, false
		}
		if n > (^uint64(0)-d)/16 {
			return 0, false
		}
		n = n*16 + d
	}
	return n, true
}
