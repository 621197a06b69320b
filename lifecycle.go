package h2engine

// endOfStream closes a stream's read half. A
// declared, nonzero remaining Content-Length at this point is a
// mismatch (unless this is a HEAD response, which never carries a
// body regardless of what it declares). Otherwise on_message_tail
// fires, the read half closes, and the stream is destroyed once both
// halves are closed.
func (c *Connection) endOfStream(s *Stream) error {
	if !s.ReadingHeadResponse && s.hasDeclaredLength() && s.RemainingPayload != 0 {
		return c.resetStream(s, ProtocolErrorCode)
	}
	if err := c.handler.OnMessageTail(s.id, nil); err != nil {
		return err
	}
	if c.streams.find(s.id) != s && c.h1Stream != s {
		// The tail callback tore the stream down itself (a WriteReset
		// from inside on_message_tail); nothing left to close.
		return nil
	}
	s.ReadState = HalfClosed
	if s.Closed() {
		return c.endStream(s)
	}
	return nil
}
