package h2engine

// beginH2CUpgrade implements the server side of the h2c Upgrade path
// (RFC 7540 §3.2): emit the literal 101 response, then our own
// SETTINGS delta (the same computation H2_INIT performs), and switch
// modes. The FSM's H1_TAIL handler sends subsequent bytes straight to
// H2_PREFACE instead of H2_INIT, since the SETTINGS frame this method
// sends already satisfies that state's obligation.
func (c *Connection) beginH2CUpgrade() error {
	const response = "HTTP/1.1 101 Switching Protocols\r\nconnection: upgrade\r\nupgrade: h2c\r\n\r\n"
	if err := c.writev([][]byte{[]byte(response)}); err != nil {
		return err
	}
	payload := EncodeDelta(nil, StandardSettings(), c.local)
	h := FrameHeader{Type: FrameSettings, Stream: 0}
	if err := writeFrame(c.writev, h, payload, c.remote.Get(ParamMaxFrameSize)); err != nil {
		return err
	}
	c.mode = ModeH2
	return nil
}
