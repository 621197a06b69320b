package h2engine

// Config holds the boolean knobs a Connection is constructed with
// (they cannot be changed afterwards): whether to allow the HTTP/1→2
// Upgrade: h2c path, whether to allow prior-knowledge h2 (a client
// preface with no preceding h1 request), and manual flow control.
// Client is fixed by which constructor made the Connection.
type Config struct {
	// DisallowH2Upgrade rejects the Upgrade: h2c path on servers.
	// Defaults to true: h2 is only reachable over prior-knowledge or
	// TLS-ALPN unless the embedder opts in.
	DisallowH2Upgrade bool
	// DisallowH2PriorKnowledge rejects a bare client preface arriving
	// without a preceding HTTP/1 request.
	DisallowH2PriorKnowledge bool
	// ManualFlowControl disables the engine's automatic stream-level
	// WINDOW_UPDATE emission on DATA receipt; only padding is
	// auto-refilled, and the embedder must call OpenFlow itself.
	ManualFlowControl bool
}

// DefaultConfig returns the default knob values.
func DefaultConfig() Config {
	return Config{
		DisallowH2Upgrade:        true,
		DisallowH2PriorKnowledge: false,
		ManualFlowControl:        false,
	}
}

// Configure applies settings as c's new LOCAL settings. If c is
// already in h2 mode, this immediately emits a SETTINGS delta from the
// previous LOCAL settings to the new ones.
func Configure(c *Connection, settings Settings) error {
	if code, ok := settings.Validate(); !ok {
		return newProtocolError(code)
	}

	prev := c.local
	c.local = settings

	if c.mode != ModeH2 {
		return nil
	}

	payload := EncodeDelta(nil, prev, c.local)
	if len(payload) == 0 {
		return nil
	}

	h := FrameHeader{Type: FrameSettings, Stream: 0}
	return writeFrame(c.writev, h, payload, c.remote.Get(ParamMaxFrameSize))
}
