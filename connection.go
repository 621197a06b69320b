package h2engine

import (
	"github.com/kasurni/h2engine/internal/buffer"
)

// Mode is the wire protocol a Connection currently speaks.
type Mode int8

const (
	ModeH1 Mode = iota
	ModeH2
)

const (
	sideLocal  = 0
	sideRemote = 1
)

// Connection is the engine's single stateful object: a pure state
// machine with no socket, no goroutine and no timer of its own. All
// mutation happens inside Begin, Consume, Eof, Shutdown or a writer
// API; reentrancy from a Handler callback back into the same
// Connection is undefined.
type Connection struct {
	client bool
	mode   Mode
	state  State

	in *buffer.Buffer

	local, remote Settings

	hpack      HeaderCodec
	headParser HeadParser
	handler    Handler
	writev     Writev

	windowSendConn int64
	windowRecvConn int64

	lastStream [2]uint32 // indexed by sideLocal/sideRemote

	resets  resetHistory
	streams streamTable

	cfg Config

	goawaySent      bool
	goawayHighWater uint32

	// h1Stream is the single stream object in flight for the current
	// HTTP/1 message (no pipelining); nil before the first message and
	// immediately after a tail.
	h1Stream *Stream
	// h1RemainingPayload sentinels: -1 chunked, -2 tunnel, else a
	// byte countdown.
	h1RemainingPayload int64
	// h1RequestCount counts completed-or-in-flight server-side h1
	// requests; the Upgrade: h2c path is only honored on the first one
	// (RFC 7540 §3.2).
	h1RequestCount int
}

const (
	h1PayloadChunked = -1
	h1PayloadTunnel  = -2
)

// MaxContinuations bounds CONTINUATION coalescence.
const MaxContinuations = 16

// NewConnection constructs a Connection in HTTP/1 mode (the default
// starting protocol; call Begin(ModeH2) for h2 prior-knowledge). hpack
// and headParser are the injected HPACK and HTTP/1-head-tokenizer
// collaborators; see the hpack and h1head subpackages for production
// implementations.
func NewConnection(client bool, handler Handler, hpack HeaderCodec, headParser HeadParser, writev Writev, cfg Config) *Connection {
	if handler == nil {
		handler = NopHandler{}
	}
	local := ConservativeSettings()
	c := &Connection{
		client:             client,
		mode:               ModeH1,
		state:              StateH1Head,
		in:                 buffer.New(),
		local:              local,
		remote:             StandardSettings(),
		hpack:              hpack,
		headParser:         headParser,
		handler:            handler,
		writev:             writev,
		cfg:                cfg,
		windowSendConn:     int64(StandardSettings().Get(ParamInitialWindowSize)),
		windowRecvConn:     int64(local.Get(ParamInitialWindowSize)),
		h1RemainingPayload: 0,
	}
	if hpack != nil {
		hpack.SetMaxDynamicTableSize(local.Get(ParamHeaderTableSize))
	}
	return c
}

// NewServerConnection is a convenience wrapper over NewConnection for
// the server endpoint.
func NewServerConnection(hpack HeaderCodec, headParser HeadParser, handler Handler, writev Writev, cfg Config) *Connection {
	return NewConnection(false, handler, hpack, headParser, writev, cfg)
}

// NewClientConnection is a convenience wrapper over NewConnection for
// the client endpoint.
func NewClientConnection(hpack HeaderCodec, headParser HeadParser, handler Handler, writev Writev, cfg Config) *Connection {
	return NewConnection(true, handler, hpack, headParser, writev, cfg)
}

// Client reports whether this Connection is the client endpoint.
func (c *Connection) Client() bool { return c.client }

// Mode reports the current wire protocol.
func (c *Connection) Mode() Mode { return c.mode }

// State reports the current top-level FSM state.
func (c *Connection) State() State { return c.state }

// Begin starts the connection in the given mode. Only ModeH2 requires
// an explicit Begin call (h2 prior-knowledge or post-Configure h2c
// setup); a freshly constructed Connection already starts in H1_HEAD.
func (c *Connection) Begin(mode Mode) error {
	if mode != ModeH2 {
		return nil
	}
	c.mode = ModeH2
	c.state = StateH2Init
	return c.fail(c.drive())
}

// fail finalizes a connection-level protocol error bubbling out of the
// state machine: GOAWAY with the matching code (unless one went out
// already) and no further progress. Callback errors and stream-level
// conditions pass through untouched.
func (c *Connection) fail(err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := AsConnError(err); ok && ce.Result == Protocol && c.state != StateClosed {
		if c.mode == ModeH2 {
			c.sendGoAway(ce.Code, nil)
		}
		c.state = StateClosed
	}
	return err
}

// Consume appends newly-received bytes and drives the state machine
// until either no further progress is possible (more input needed) or
// a terminal condition (error, disconnect) is reached.
func (c *Connection) Consume(data []byte) error {
	if c.state == StateClosed {
		return ErrDisconnect
	}
	if len(data) > 0 {
		c.in.Append(data)
	}
	return c.fail(c.drive())
}

// Eof signals that the transport will deliver no further bytes.
// Any state other than CLOSED at this point means the peer hung up
// mid-message; we don't synthesize a protocol error for that (the
// embedder already knows the connection is gone) but we do stop
// accepting further Consume calls.
func (c *Connection) Eof() error {
	if c.state == StateClosed {
		return ErrDisconnect
	}
	c.state = StateClosed
	return nil
}

// Shutdown ends the connection, sending GOAWAY(NO_ERROR) first if in
// h2 mode and one hasn't already been sent. Idempotent: a second call
// is a no-op returning nil.
func (c *Connection) Shutdown() error {
	if c.state == StateClosed {
		return nil
	}
	var err error
	if c.mode == ModeH2 && !c.goawaySent {
		err = c.sendGoAway(NoError, nil)
	}
	c.state = StateClosed
	return err
}

func (c *Connection) isLocalID(id uint32) bool {
	want := uint32(0)
	if c.client {
		want = 1
	}
	return id%2 == want
}

// nextLocalID returns the next id this side would use to open a new
// stream (odd for clients, even for servers), without reserving it.
func (c *Connection) nextLocalID() uint32 {
	last := c.lastStream[sideLocal]
	if last == 0 {
		if c.client {
			return 1
		}
		return 2
	}
	return last + 2
}

func (c *Connection) openCount(local bool) int {
	n := 0
	for i := range c.streams.bucket {
		for _, s := range c.streams.bucket[i] {
			if s.local == local {
				n++
			}
		}
	}
	return n
}

// newStream opens a stream on the given side, enforcing id parity,
// monotonicity and the concurrency limit.
func (c *Connection) newStream(id uint32, local bool) (*Stream, error) {
	side := sideRemote
	if local {
		side = sideLocal
	}

	if local && !c.isLocalID(id) {
		return nil, ErrInvalidStream
	}
	if !local && c.isLocalID(id) {
		return nil, newProtocolError(ProtocolErrorCode)
	}
	if id <= c.lastStream[side] {
		if local {
			return nil, ErrInvalidStream
		}
		return nil, newProtocolError(ProtocolErrorCode)
	}

	limit := c.remote.Get(ParamMaxConcurrentStreams)
	if !local {
		limit = c.local.Get(ParamMaxConcurrentStreams)
	}
	if c.mode == ModeH1 {
		limit = 1
	}
	if limit != Unlimited && uint32(c.openCount(local)) >= limit {
		if local {
			return nil, ErrWouldBlock
		}
		return nil, newProtocolError(RefusedStreamError)
	}

	c.lastStream[side] = id
	s := &Stream{
		id:               id,
		local:            local,
		ReadState:        HalfHeaders,
		WriteState:       HalfHeaders,
		WindowRecv:       int64(c.local.Get(ParamInitialWindowSize)),
		WindowSend:       int64(c.remote.Get(ParamInitialWindowSize)),
		RemainingPayload: noContentLength,
	}
	c.streams.insert(s)

	if err := c.handler.OnStreamStart(id); err != nil {
		c.streams.remove(id)
		return nil, err
	}
	return s, nil
}

// endStream implements the stream-table "end" operation: unlink and
// fire on_stream_end.
func (c *Connection) endStream(s *Stream) error {
	if c.h1Stream == s {
		c.h1Stream = nil
	}
	c.streams.remove(s.id)
	return c.handler.OnStreamEnd(s.id)
}

// endStreamByLocal ends a stream we reset ourselves: it additionally
// updates the reset-history ring before unlinking.
func (c *Connection) endStreamByLocal(s *Stream) error {
	if s.ReadState != HalfClosed {
		c.resets.record(s.id, s.ReadState == HalfHeaders)
	}
	return c.endStream(s)
}

// findOrRecentlyReset looks up id; if absent, reports whether recent
// local reset history tolerates a frame of kind arriving for it.
func (c *Connection) findOrRecentlyReset(id uint32, kind FrameType) (*Stream, bool) {
	if s := c.streams.find(id); s != nil {
		return s, false
	}
	return nil, c.resets.tolerates(id, kind)
}
