package h2engine

import "github.com/kasurni/h2engine/internal/wire"

// handlePushPromise handles PUSH_PROMISE (RFC 7540 §6.6): only
// accepted if we advertised SETTINGS_ENABLE_PUSH and the parent is a
// locally opened, open stream; the promised id prefix opens a new
// stream for the pushed response.
func (c *Connection) handlePushPromise(fh FrameHeader, payload []byte) error {
	body := payload
	if fh.Flags.Has(FlagPadded) {
		var err error
		body, err = stripPadded(body)
		if err != nil {
			return err
		}
	}
	if len(body) < 4 {
		return newProtocolError(FrameSizeErrorCode)
	}
	promisedID := wire.BytesToUint32(body[:4]) &^ (1 << 31)
	block := body[4:]

	headers, err := c.hpack.Decode(block)
	if err != nil {
		c.sendGoAway(CompressionErrorCode, nil)
		return newProtocolError(CompressionErrorCode)
	}

	if c.local.Get(ParamEnablePush) == 0 {
		return newProtocolError(ProtocolErrorCode)
	}
	parent := c.streams.find(fh.Stream)
	if parent == nil || !parent.Local() {
		return newProtocolError(ProtocolErrorCode)
	}

	s, err := c.newStream(promisedID, false)
	if err != nil {
		return err
	}
	// We never send on a stream the peer reserved; only its response
	// flows back.
	s.WriteState = HalfClosed

	// A bad promise is the promised stream's problem, not the
	// connection's: validation failures reset it and leave the parent
	// (and everything else) running.
	msg, contentLength, hasContentLength, ok := validateHeaderList(headers, kindPromise, false, false)
	if !ok {
		return c.resetStream(s, ProtocolErrorCode)
	}
	if hasContentLength {
		s.declareContentLength(contentLength)
	}
	return c.handler.OnMessagePush(fh.Stream, msg, promisedID)
}
