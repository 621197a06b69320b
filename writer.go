package h2engine

import (
	"net/http"
	"strconv"

	"github.com/kasurni/h2engine/internal/wire"
	"github.com/valyala/fastrand"
)

// headerListFor builds the wire-order header list HPACK encodes for
// msg: pseudo-headers first, then the regular
// fields the caller supplied.
func headerListFor(msg *Message) HeaderList {
	var hl HeaderList
	if msg.IsRequest() {
		hl = append(hl, Header{Name: strMethod, Value: msg.Method})
		hl = append(hl, Header{Name: strScheme, Value: msg.Scheme})
		hl = append(hl, Header{Name: strAuthority, Value: msg.Authority})
		hl = append(hl, Header{Name: strPath, Value: msg.Path})
	} else {
		hl = append(hl, Header{Name: strStatus, Value: []byte(strconv.Itoa(msg.Code))})
	}
	return append(hl, msg.Headers...)
}

// NextStreamID returns the id this side would use to open its next
// local stream (odd for clients, even for servers), without reserving
// it — the caller passes it straight to WriteHead.
func (c *Connection) NextStreamID() uint32 { return c.nextLocalID() }

// WriteHead writes a message head: it asserts client/server
// consistency (a client writes requests, code==0; a server writes
// responses, code!=0 and an empty Path), opens sid if it isn't
// already a live stream, and sends the head. final closes the write
// half immediately, with no body to follow.
func (c *Connection) WriteHead(sid uint32, msg *Message, final bool) error {
	if c.client && !msg.IsRequest() {
		return ErrInvalidStream
	}
	if !c.client && (msg.IsRequest() || len(msg.Path) != 0) {
		return ErrInvalidStream
	}
	for _, h := range msg.Headers {
		if !wire.IsLowerToken(h.Name) {
			return ErrAssertion
		}
	}
	if c.mode == ModeH2 {
		return c.writeHeadH2(sid, msg, final)
	}
	return c.writeHeadH1(msg, final)
}

func (c *Connection) writeHeadH2(sid uint32, msg *Message, final bool) (err error) {
	s := c.streams.find(sid)
	if s == nil {
		s, err = c.newStream(sid, true)
		if err != nil {
			return err
		}
	} else if s.WriteState != HalfHeaders {
		return ErrInvalidStream
	}
	if msg.IsRequest() && equalFold(msg.Method, strHead) {
		s.ReadingHeadResponse = true
	}

	block, err := c.hpack.Encode(nil, headerListFor(msg))
	if err != nil {
		return err
	}
	flags := FlagEndHeaders
	if final {
		flags |= FlagEndStream
	}
	h := FrameHeader{Type: FrameHeaders, Flags: flags, Stream: sid}
	if err := writeFrame(c.writev, h, block, c.remote.Get(ParamMaxFrameSize)); err != nil {
		return err
	}

	if final {
		s.WriteState = HalfClosed
		if s.Closed() {
			return c.endStream(s)
		}
		return nil
	}
	s.WriteState = HalfData
	return nil
}

func (c *Connection) writeHeadH1(msg *Message, final bool) error {
	if c.client {
		return c.writeH1Request(msg, final)
	}
	return c.writeH1Response(msg, final)
}

func (c *Connection) writeH1Request(msg *Message, final bool) error {
	if c.h1Stream != nil {
		return ErrInvalidStream
	}
	s, err := c.beginH1Stream(true)
	if err != nil {
		return err
	}
	s.ReadingHeadResponse = equalFold(msg.Method, strHead)

	chunked := !final && !headerHasContentLength(msg.Headers)

	var buf []byte
	buf = append(buf, msg.Method...)
	buf = append(buf, ' ')
	buf = append(buf, msg.Path...)
	buf = append(buf, " HTTP/1.1\r\n"...)
	buf = append(buf, "host: "...)
	buf = append(buf, msg.Authority...)
	buf = append(buf, "\r\n"...)
	buf = appendH1Headers(buf, msg.Headers, chunked)

	if err := c.writev([][]byte{buf}); err != nil {
		return err
	}
	return c.finishH1Write(s, final, chunked)
}

func (c *Connection) writeH1Response(msg *Message, final bool) error {
	s := c.h1Stream
	if s == nil || s.local {
		return ErrInvalidStream
	}

	chunked := !final && !headerHasContentLength(msg.Headers)

	reason := http.StatusText(msg.Code)
	if reason == "" {
		reason = "No Reason"
	}

	var buf []byte
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(msg.Code), 10)
	buf = append(buf, ' ')
	buf = append(buf, reason...)
	buf = append(buf, "\r\n"...)
	buf = appendH1Headers(buf, msg.Headers, chunked)

	if err := c.writev([][]byte{buf}); err != nil {
		return err
	}
	return c.finishH1Write(s, final, chunked)
}

func headerHasContentLength(hl HeaderList) bool {
	_, ok := hl.Get(strContentLength)
	return ok
}

func appendH1Headers(buf []byte, hl HeaderList, chunked bool) []byte {
	if chunked {
		buf = append(buf, "transfer-encoding: chunked\r\n"...)
	}
	for _, h := range hl {
		buf = append(buf, h.Name...)
		buf = append(buf, ": "...)
		buf = append(buf, h.Value...)
		buf = append(buf, "\r\n"...)
	}
	return append(buf, "\r\n"...)
}

// finishH1Write closes the write half if final, else records the
// chosen body framing for WriteData. A fully-closed stream is
// destroyed on the spot.
func (c *Connection) finishH1Write(s *Stream, final, chunked bool) error {
	if final {
		s.WriteState = HalfClosed
		if s.Closed() {
			return c.endStream(s)
		}
		return nil
	}
	s.WritingChunked = chunked
	s.WriteState = HalfData
	return nil
}

// WriteData writes body bytes. It returns the number of
// bytes actually accepted, which in h2 may be less than len(data) when
// the flow-control windows don't cover the whole write (the caller is
// expected to retry the remainder once on_flow_increase fires).
func (c *Connection) WriteData(sid uint32, data []byte, final bool) (int, error) {
	if c.mode == ModeH2 {
		return c.writeDataH2(sid, data, final)
	}
	return c.writeDataH1(data, final)
}

func (c *Connection) writeDataH2(sid uint32, data []byte, final bool) (int, error) {
	s := c.streams.find(sid)
	if s == nil || s.WriteState != HalfData {
		return 0, ErrInvalidStream
	}

	n := int64(len(data))
	if n > s.WindowSend {
		n = s.WindowSend
	}
	if n > c.windowSendConn {
		n = c.windowSendConn
	}
	if n < 0 {
		n = 0
	}
	chunk := data[:n]
	endStream := final && n == int64(len(data))

	var flags FrameFlags
	if endStream {
		flags |= FlagEndStream
	}
	h := FrameHeader{Type: FrameData, Flags: flags, Stream: sid}
	if err := writeFrame(c.writev, h, chunk, c.remote.Get(ParamMaxFrameSize)); err != nil {
		return 0, err
	}
	s.WindowSend -= n
	c.windowSendConn -= n

	if endStream {
		s.WriteState = HalfClosed
		if s.Closed() {
			if err := c.endStream(s); err != nil {
				return int(n), err
			}
		}
	}
	return int(n), nil
}

func (c *Connection) writeDataH1(data []byte, final bool) (int, error) {
	s := c.h1Stream
	if s == nil || s.WriteState != HalfData {
		return 0, ErrInvalidStream
	}

	if len(data) > 0 {
		if s.WritingChunked {
			var hdr [2 + 16 + 2]byte
			line := strconv.AppendUint(hdr[:0], uint64(len(data)), 16)
			line = append(line, "\r\n"...)
			if err := c.writev([][]byte{line, data, []byte("\r\n")}); err != nil {
				return 0, err
			}
		} else if err := c.writev([][]byte{data}); err != nil {
			return 0, err
		}
	}

	if final {
		if s.WritingChunked {
			if err := c.writev([][]byte{[]byte("0\r\n\r\n")}); err != nil {
				return len(data), err
			}
		}
		s.WriteState = HalfClosed
		if s.Closed() {
			if err := c.endStream(s); err != nil {
				return len(data), err
			}
		}
	}
	return len(data), nil
}

// WritePush reserves and promises a pushed stream: server and h2 only,
// over a still-open stream the client initiated, respecting the peer's
// advertised SETTINGS_ENABLE_PUSH. Synthesizes on_message_head and
// on_message_tail locally for symmetry with the inbound path.
func (c *Connection) WritePush(parentID uint32, msg *Message) (uint32, error) {
	if c.client || c.mode != ModeH2 || c.remote.Get(ParamEnablePush) == 0 {
		return 0, ErrInvalidStream
	}
	parent := c.streams.find(parentID)
	if parent == nil || parent.local || parent.WriteState == HalfClosed {
		return 0, ErrInvalidStream
	}

	id := c.nextLocalID()
	s, err := c.newStream(id, true)
	if err != nil {
		return 0, err
	}
	block, err := c.hpack.Encode(nil, headerListFor(msg))
	if err != nil {
		return 0, err
	}
	payload := wire.AppendUint32(make([]byte, 0, 4+len(block)), id)
	payload = append(payload, block...)

	h := FrameHeader{Type: FramePushPromise, Flags: FlagEndHeaders, Stream: parentID}
	if err := writeFrame(c.writev, h, payload, c.remote.Get(ParamMaxFrameSize)); err != nil {
		return 0, err
	}

	// The pushed request has no inbound half; synthesize its head and
	// tail locally so the callback sequence matches a real request.
	// The write half stays at HEADERS awaiting WriteHead for the
	// pushed response.
	if err := c.handler.OnMessageHead(id, msg); err != nil {
		return 0, err
	}
	if err := c.endOfStream(s); err != nil {
		return 0, err
	}
	return id, nil
}

// WriteReset aborts a stream or the connection: h2 only. sid 0 emits
// GOAWAY; sid > 0 emits RST_STREAM and destroys the stream locally.
func (c *Connection) WriteReset(sid uint32, code ErrorCode) error {
	if c.mode != ModeH2 {
		return ErrInvalidStream
	}
	if sid == 0 {
		return c.sendGoAway(code, nil)
	}
	s := c.streams.find(sid)
	if s == nil {
		return ErrInvalidStream
	}
	return c.resetStream(s, code)
}

// WritePing sends a PING carrying payload: h2 only.
func (c *Connection) WritePing(payload [8]byte) error {
	if c.mode != ModeH2 {
		return ErrInvalidStream
	}
	h := FrameHeader{Type: FramePing, Stream: 0}
	return writeFrame(c.writev, h, payload[:], c.remote.Get(ParamMaxFrameSize))
}

// Ping sends a keepalive PING with a random 8-byte nonce, so a
// misbehaving peer can't trivially recognize and special-case our
// liveness checks against a fixed payload, and returns the nonce so
// the caller can match it against the OnPong callback.
func (c *Connection) Ping() ([8]byte, error) {
	var payload [8]byte
	copy(payload[0:4], wire.AppendUint32(nil, fastrand.Uint32()))
	copy(payload[4:8], wire.AppendUint32(nil, fastrand.Uint32()))
	return payload, c.WritePing(payload)
}

// WriteFrame is the raw escape hatch: it emits any frame
// type except DATA, whose framing (flow control, splitting, state
// transitions) only WriteData is allowed to drive.
func (c *Connection) WriteFrame(fh FrameHeader, payload []byte) error {
	if c.mode != ModeH2 {
		return ErrInvalidStream
	}
	if fh.Type == FrameData {
		return ErrNotImplemented
	}
	return writeFrame(c.writev, fh, payload, c.remote.Get(ParamMaxFrameSize))
}

// OpenFlow widens a local receive window: h2 only. sid 0 refills
// the connection-level receive window; any other id refills that
// stream's. Used by embedders running with Config.ManualFlowControl.
func (c *Connection) OpenFlow(sid uint32, delta uint32) error {
	if c.mode != ModeH2 {
		return ErrInvalidStream
	}
	if delta == 0 {
		return nil
	}
	if sid == 0 {
		return c.openFlowConn(delta)
	}
	s := c.streams.find(sid)
	if s == nil {
		return ErrInvalidStream
	}
	return c.openFlowStream(s, delta)
}

func (c *Connection) openFlowConn(n uint32) error {
	c.windowRecvConn += int64(n)
	h := FrameHeader{Type: FrameWindowUpdate, Stream: 0}
	return writeFrame(c.writev, h, wire.AppendUint32(nil, n), c.remote.Get(ParamMaxFrameSize))
}

func (c *Connection) openFlowStream(s *Stream, n uint32) error {
	s.WindowRecv += int64(n)
	h := FrameHeader{Type: FrameWindowUpdate, Stream: s.id}
	return writeFrame(c.writev, h, wire.AppendUint32(nil, n), c.remote.Get(ParamMaxFrameSize))
}
