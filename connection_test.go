package h2engine_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasurni/h2engine"
	"github.com/kasurni/h2engine/h1head"
	"github.com/kasurni/h2engine/hpack"
)

var preface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

// eventLog records the observable callback sequence as flat strings,
// so tests can assert exact ordering. Flow-control refills and the
// per-frame observability hook are deliberately not recorded; they'd
// drown the interesting events.
type eventLog struct {
	h2engine.NopHandler
	events []string
}

func (e *eventLog) add(format string, args ...interface{}) {
	e.events = append(e.events, fmt.Sprintf(format, args...))
}

func (e *eventLog) OnStreamStart(id uint32) error { e.add("start %d", id); return nil }
func (e *eventLog) OnStreamEnd(id uint32) error   { e.add("end %d", id); return nil }

func (e *eventLog) OnMessageHead(id uint32, msg *h2engine.Message) error {
	if msg.IsRequest() {
		e.add("head %d %s %s", id, msg.Method, msg.Path)
	} else {
		e.add("head %d %d", id, msg.Code)
	}
	return nil
}

func (e *eventLog) OnMessageData(id uint32, b []byte) error {
	e.add("data %d %s", id, b)
	return nil
}

func (e *eventLog) OnMessageTail(id uint32, _ h2engine.HeaderList) error {
	e.add("tail %d", id)
	return nil
}

func (e *eventLog) OnMessagePush(parent uint32, _ *h2engine.Message, promised uint32) error {
	e.add("push %d %d", parent, promised)
	return nil
}

func (e *eventLog) OnSettings() error      { e.add("settings"); return nil }
func (e *eventLog) OnPong(_ [8]byte) error { e.add("pong"); return nil }
func (e *eventLog) OnUpgrade() error       { e.add("upgrade"); return nil }

// frameSink is a writev that flattens everything the engine emits, for
// tests that inspect the raw outbound byte stream.
type frameSink struct {
	raw []byte
}

func (s *frameSink) writev(bufs [][]byte) error {
	for _, b := range bufs {
		s.raw = append(s.raw, b...)
	}
	return nil
}

type capturedFrame struct {
	Header  h2engine.FrameHeader
	Payload []byte
}

// framesFrom parses the sink contents starting at off as a sequence of
// HTTP/2 frames.
func (s *frameSink) framesFrom(t *testing.T, off int) []capturedFrame {
	t.Helper()
	var out []capturedFrame
	buf := s.raw[off:]
	for len(buf) > 0 {
		require.GreaterOrEqual(t, len(buf), h2engine.FrameHeaderSize)
		fh := h2engine.ParseFrameHeader(buf[:h2engine.FrameHeaderSize])
		total := h2engine.FrameHeaderSize + int(fh.Length)
		require.GreaterOrEqual(t, len(buf), total)
		out = append(out, capturedFrame{Header: fh, Payload: buf[h2engine.FrameHeaderSize:total]})
		buf = buf[total:]
	}
	return out
}

func rawFrame(typ h2engine.FrameType, flags h2engine.FrameFlags, stream uint32, payload []byte) []byte {
	h := h2engine.FrameHeader{Length: uint32(len(payload)), Type: typ, Flags: flags, Stream: stream}
	buf := make([]byte, h2engine.FrameHeaderSize, h2engine.FrameHeaderSize+len(payload))
	h.Encode(buf)
	return append(buf, payload...)
}

func encodeBlock(t *testing.T, enc *hpack.Codec, hl h2engine.HeaderList) []byte {
	t.Helper()
	block, err := enc.Encode(nil, hl)
	require.NoError(t, err)
	return block
}

func hdr(name, value string) h2engine.Header {
	return h2engine.Header{Name: []byte(name), Value: []byte(value)}
}

// newRawServer builds a server whose outbound bytes land in a sink,
// fed by handing raw bytes to Consume directly.
func newRawServer(handler h2engine.Handler, cfg h2engine.Config) (*h2engine.Connection, *frameSink) {
	sink := &frameSink{}
	c := h2engine.NewServerConnection(hpack.New(4096), h1head.New(), handler, sink.writev, cfg)
	return c, sink
}

// h2Handshake drives a raw server through the prior-knowledge preface
// and an empty client SETTINGS frame, returning the sink offset where
// post-handshake output starts.
func h2Handshake(t *testing.T, c *h2engine.Connection, sink *frameSink) int {
	t.Helper()
	require.NoError(t, c.Consume(preface))
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameSettings, 0, 0, nil)))
	require.Equal(t, h2engine.StateH2Frame, c.State())
	return len(sink.raw)
}

// newLoopbackPair wires two engines back to back through byte queues.
// Outbound bytes are queued, never consumed reentrantly; the returned
// pump drains both directions until the wire is silent.
func newLoopbackPair(t *testing.T, clientHandler, serverHandler h2engine.Handler) (client, server *h2engine.Connection, pump func()) {
	t.Helper()

	var toServer, toClient [][]byte

	clientWritev := func(bufs [][]byte) error {
		var flat []byte
		for _, b := range bufs {
			flat = append(flat, b...)
		}
		toServer = append(toServer, flat)
		return nil
	}
	serverWritev := func(bufs [][]byte) error {
		var flat []byte
		for _, b := range bufs {
			flat = append(flat, b...)
		}
		toClient = append(toClient, flat)
		return nil
	}

	client = h2engine.NewClientConnection(hpack.New(4096), h1head.New(), clientHandler, clientWritev, h2engine.DefaultConfig())
	server = h2engine.NewServerConnection(hpack.New(4096), h1head.New(), serverHandler, serverWritev, h2engine.DefaultConfig())

	pump = func() {
		for len(toServer) > 0 || len(toClient) > 0 {
			if len(toServer) > 0 {
				q := toServer
				toServer = nil
				for _, b := range q {
					require.NoError(t, server.Consume(b))
				}
			}
			if len(toClient) > 0 {
				q := toClient
				toClient = nil
				for _, b := range q {
					require.NoError(t, client.Consume(b))
				}
			}
		}
	}
	return client, server, pump
}

func TestServerPrefaceHappyPath(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())

	require.NoError(t, c.Consume(preface))
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameSettings, 0, 0, nil)))

	require.Equal(t, h2engine.ModeH2, c.Mode())
	require.Equal(t, h2engine.StateH2Frame, c.State())
	require.Equal(t, []string{"settings"}, h.events)

	frames := sink.framesFrom(t, 0)
	require.Len(t, frames, 2)
	require.Equal(t, h2engine.FrameSettings, frames[0].Header.Type)
	require.False(t, frames[0].Header.Flags.Has(h2engine.FlagAck))
	require.Equal(t, h2engine.FrameSettings, frames[1].Header.Type)
	require.True(t, frames[1].Header.Flags.Has(h2engine.FlagAck))
	require.Empty(t, frames[1].Payload)
}

func TestH2HandshakeAndRequestResponse(t *testing.T) {
	clientH := &eventLog{}
	serverH := &eventLog{}
	client, server, pump := newLoopbackPair(t, clientH, serverH)

	require.NoError(t, client.Begin(h2engine.ModeH2))
	pump()
	require.Equal(t, h2engine.ModeH2, server.Mode())
	require.Equal(t, h2engine.StateH2Frame, client.State())
	require.Equal(t, h2engine.StateH2Frame, server.State())

	sid := client.NextStreamID()
	require.EqualValues(t, 1, sid)
	req := &h2engine.Message{
		Method:    []byte("GET"),
		Path:      []byte("/"),
		Authority: []byte("example.com"),
		Scheme:    []byte("https"),
	}
	require.NoError(t, client.WriteHead(sid, req, true))
	pump()
	require.Equal(t, []string{"settings", "start 1", "head 1 GET /", "tail 1"}, serverH.events)

	require.NoError(t, server.WriteHead(sid, &h2engine.Message{Code: 200}, false))
	n, err := server.WriteData(sid, []byte("hello"), true)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	pump()

	require.Equal(t, []string{"settings", "start 1", "head 1 200", "data 1 hello", "tail 1", "end 1"}, clientH.events)
	require.Equal(t, "end 1", serverH.events[len(serverH.events)-1])
}

func TestH1RequestResponse(t *testing.T) {
	clientH := &eventLog{}
	serverH := &eventLog{}
	client, server, pump := newLoopbackPair(t, clientH, serverH)

	req := &h2engine.Message{
		Method:    []byte("GET"),
		Path:      []byte("/"),
		Authority: []byte("example.com"),
	}
	require.NoError(t, client.WriteHead(1, req, true))
	pump()
	require.Equal(t, []string{"start 1", "head 1 GET /", "tail 1"}, serverH.events)

	require.NoError(t, server.WriteHead(1, &h2engine.Message{Code: 404}, true))
	pump()
	require.Equal(t, []string{"start 1", "head 1 404", "tail 1", "end 1"}, clientH.events)
	require.Equal(t, "end 1", serverH.events[len(serverH.events)-1])
}

func TestClientH1ChunkedResponse(t *testing.T) {
	h := &eventLog{}
	sink := &frameSink{}
	client := h2engine.NewClientConnection(hpack.New(4096), h1head.New(), h, sink.writev, h2engine.DefaultConfig())

	require.NoError(t, client.WriteHead(1, &h2engine.Message{
		Method:    []byte("GET"),
		Path:      []byte("/x"),
		Authority: []byte("x"),
	}, true))

	resp := "HTTP/1.1 200 OK\r\ntransfer-encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	require.NoError(t, client.Consume([]byte(resp)))

	require.Equal(t, []string{"start 1", "head 1 200", "data 1 hello", "tail 1", "end 1"}, h.events)
}

func TestH2CUpgrade(t *testing.T) {
	h := &eventLog{}
	cfg := h2engine.DefaultConfig()
	cfg.DisallowH2Upgrade = false
	c, sink := newRawServer(h, cfg)

	req := "GET / HTTP/1.1\r\n" +
		"host: x\r\n" +
		"connection: upgrade, http2-settings\r\n" +
		"upgrade: h2c\r\n" +
		"http2-settings: AAMAAABk\r\n" +
		"\r\n"
	require.NoError(t, c.Consume([]byte(req)))

	const switching = "HTTP/1.1 101 Switching Protocols\r\nconnection: upgrade\r\nupgrade: h2c\r\n\r\n"
	require.Greater(t, len(sink.raw), len(switching))
	require.Equal(t, switching, string(sink.raw[:len(switching)]))

	frames := sink.framesFrom(t, len(switching))
	require.NotEmpty(t, frames)
	require.Equal(t, h2engine.FrameSettings, frames[0].Header.Type)

	require.Equal(t, h2engine.ModeH2, c.Mode())
	require.Equal(t, h2engine.StateH2Preface, c.State())
	require.Equal(t, []string{"start 1", "head 1 GET /", "tail 1"}, h.events)

	// The upgraded request is answered over HTTP/2 on stream 1.
	require.NoError(t, c.WriteHead(1, &h2engine.Message{Code: 200}, true))
	frames = sink.framesFrom(t, len(switching))
	last := frames[len(frames)-1]
	require.Equal(t, h2engine.FrameHeaders, last.Header.Type)
	require.EqualValues(t, 1, last.Header.Stream)
	require.Equal(t, "end 1", h.events[len(h.events)-1])
}

func TestOversizedFrameIsFrameSizeError(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	big := h2engine.FrameHeader{Length: 16385, Type: h2engine.FrameData, Stream: 1}
	buf := make([]byte, h2engine.FrameHeaderSize)
	big.Encode(buf)

	err := c.Consume(buf)
	ce, ok := h2engine.AsConnError(err)
	require.True(t, ok)
	require.Equal(t, h2engine.Protocol, ce.Result)
	require.Equal(t, h2engine.FrameSizeErrorCode, ce.Code)

	frames := sink.framesFrom(t, off)
	require.Len(t, frames, 1)
	require.Equal(t, h2engine.FrameGoAway, frames[0].Header.Type)
	require.EqualValues(t, h2engine.FrameSizeErrorCode, frames[0].Payload[7])

	// The connection is dead; further input is refused.
	require.ErrorIs(t, c.Consume([]byte{0}), h2engine.ErrDisconnect)
}

func TestTrailerPseudoHeaderResetsStream(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	enc := hpack.New(4096)
	head := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
	})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders, 1, head)))
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameData, 0, 1, nil)))

	trailer := encodeBlock(t, enc, h2engine.HeaderList{hdr(":status", "200")})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders|h2engine.FlagEndStream, 1, trailer)))

	var rst *capturedFrame
	for _, f := range sink.framesFrom(t, off) {
		if f.Header.Type == h2engine.FrameRSTStream {
			f := f
			rst = &f
		}
	}
	require.NotNil(t, rst)
	require.EqualValues(t, 1, rst.Header.Stream)
	require.EqualValues(t, h2engine.ProtocolErrorCode, rst.Payload[3])

	// Late frames on the reset stream are tolerated, and their header
	// blocks still feed the shared HPACK state: a fresh stream using
	// the same dynamic-table entries decodes fine.
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameWindowUpdate, 0, 1, []byte{0, 0, 0, 1})))
	head3 := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
	})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders|h2engine.FlagEndStream, 3, head3)))
	require.Contains(t, h.events, "head 3 GET /")
}

func TestWindowUpdateZeroIncrement(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	err := c.Consume(rawFrame(h2engine.FrameWindowUpdate, 0, 0, []byte{0, 0, 0, 0}))
	ce, ok := h2engine.AsConnError(err)
	require.True(t, ok)
	require.Equal(t, h2engine.Protocol, ce.Result)

	frames := sink.framesFrom(t, off)
	require.Len(t, frames, 1)
	require.Equal(t, h2engine.FrameGoAway, frames[0].Header.Type)
	require.EqualValues(t, h2engine.ProtocolErrorCode, frames[0].Payload[7])
}

func TestWindowUpdateOverflowResetsStream(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	enc := hpack.New(4096)
	head := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
	})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders, 1, head)))

	// 2^31-1 on top of the 65535 initial window overflows the ceiling.
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameWindowUpdate, 0, 1, []byte{0x7f, 0xff, 0xff, 0xff})))

	frames := sink.framesFrom(t, off)
	last := frames[len(frames)-1]
	require.Equal(t, h2engine.FrameRSTStream, last.Header.Type)
	require.EqualValues(t, 1, last.Header.Stream)
	require.EqualValues(t, h2engine.FlowControlErrorCode, last.Payload[3])
}

func TestPingPong(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, c.Consume(rawFrame(h2engine.FramePing, 0, 0, payload)))

	frames := sink.framesFrom(t, off)
	require.Len(t, frames, 1)
	require.Equal(t, h2engine.FramePing, frames[0].Header.Type)
	require.True(t, frames[0].Header.Flags.Has(h2engine.FlagAck))
	require.Equal(t, payload, frames[0].Payload)

	require.NoError(t, c.Consume(rawFrame(h2engine.FramePing, h2engine.FlagAck, 0, payload)))
	require.Contains(t, h.events, "pong")
}

func TestGoAwayFromPeerDisconnects(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	h2Handshake(t, c, sink)

	goaway := make([]byte, 8) // last stream 0, NO_ERROR
	err := c.Consume(rawFrame(h2engine.FrameGoAway, 0, 0, goaway))
	require.ErrorIs(t, err, h2engine.ErrDisconnect)
}

func TestPushPromise(t *testing.T) {
	clientH := &eventLog{}
	serverH := &eventLog{}
	client, server, pump := newLoopbackPair(t, clientH, serverH)

	require.NoError(t, client.Begin(h2engine.ModeH2))
	pump()

	sid := client.NextStreamID()
	require.NoError(t, client.WriteHead(sid, &h2engine.Message{
		Method: []byte("GET"), Path: []byte("/"), Authority: []byte("x"), Scheme: []byte("https"),
	}, true))
	pump()

	push := &h2engine.Message{
		Method: []byte("GET"), Path: []byte("/style.css"), Authority: []byte("x"), Scheme: []byte("https"),
	}
	promised, err := server.WritePush(sid, push)
	require.NoError(t, err)
	require.EqualValues(t, 2, promised)

	require.NoError(t, server.WriteHead(promised, &h2engine.Message{Code: 200}, true))
	require.NoError(t, server.WriteHead(sid, &h2engine.Message{Code: 200}, true))
	pump()

	require.Contains(t, clientH.events, "push 1 2")
	require.Contains(t, clientH.events, "head 2 200")
	require.Contains(t, clientH.events, "end 2")
}

func TestConcurrencyLimitWouldBlock(t *testing.T) {
	clientH := &eventLog{}
	serverH := &eventLog{}
	client, server, pump := newLoopbackPair(t, clientH, serverH)

	limited := h2engine.ConservativeSettings()
	limited.Set(h2engine.ParamMaxConcurrentStreams, 1)
	require.NoError(t, h2engine.Configure(server, limited))

	require.NoError(t, client.Begin(h2engine.ModeH2))
	pump()

	req := &h2engine.Message{
		Method: []byte("GET"), Path: []byte("/"), Authority: []byte("x"), Scheme: []byte("https"),
	}
	require.NoError(t, client.WriteHead(1, req, false))
	err := client.WriteHead(3, req, false)
	require.ErrorIs(t, err, h2engine.ErrWouldBlock)
}

func TestSettingsConstraintViolation(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	// enable_push must be 0 or 1
	bad := []byte{0x00, 0x02, 0x00, 0x00, 0x00, 0x02}
	err := c.Consume(rawFrame(h2engine.FrameSettings, 0, 0, bad))
	ce, ok := h2engine.AsConnError(err)
	require.True(t, ok)
	require.Equal(t, h2engine.Protocol, ce.Result)

	frames := sink.framesFrom(t, off)
	require.Equal(t, h2engine.FrameGoAway, frames[len(frames)-1].Header.Type)
}

func TestWriteHeadRejectsWrongDirection(t *testing.T) {
	clientH := &eventLog{}
	serverH := &eventLog{}
	client, _, _ := newLoopbackPair(t, clientH, serverH)

	// a client may not write a response (a message carrying a status code).
	err := client.WriteHead(1, &h2engine.Message{Code: 200}, true)
	require.ErrorIs(t, err, h2engine.ErrInvalidStream)
}

func TestFlowControlShortWrite(t *testing.T) {
	clientH := &eventLog{}
	serverH := &eventLog{}
	client, _, pump := newLoopbackPair(t, clientH, serverH)
	require.NoError(t, client.Begin(h2engine.ModeH2))
	pump()

	sid := client.NextStreamID()
	require.NoError(t, client.WriteHead(sid, &h2engine.Message{
		Method: []byte("POST"), Path: []byte("/"), Authority: []byte("x"), Scheme: []byte("https"),
	}, false))

	big := make([]byte, 70000) // exceeds the 65535-byte default stream window
	n, err := client.WriteData(sid, big, true)
	require.NoError(t, err)
	require.Equal(t, 65535, n)
}

func TestShutdownIdempotent(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())

	frames := sink.framesFrom(t, off)
	require.Len(t, frames, 1)
	require.Equal(t, h2engine.FrameGoAway, frames[0].Header.Type)
}

func TestFragmentationDoesNotChangeSemantics(t *testing.T) {
	enc := hpack.New(4096)
	head, err := enc.Encode(nil, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
		hdr("x-custom", "abc"),
	})
	require.NoError(t, err)

	var input []byte
	input = append(input, preface...)
	input = append(input, rawFrame(h2engine.FrameSettings, 0, 0, nil)...)
	input = append(input, rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders|h2engine.FlagEndStream, 1, head)...)

	oneShot := &eventLog{}
	c1, _ := newRawServer(oneShot, h2engine.DefaultConfig())
	require.NoError(t, c1.Consume(input))

	byteWise := &eventLog{}
	c2, _ := newRawServer(byteWise, h2engine.DefaultConfig())
	for _, b := range input {
		require.NoError(t, c2.Consume([]byte{b}))
	}

	require.Equal(t, oneShot.events, byteWise.events)
	require.NotEmpty(t, oneShot.events)
}

func TestContinuationCoalescence(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	h2Handshake(t, c, sink)

	enc := hpack.New(4096)
	head := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
		hdr("x-long", "some value to split"),
	})
	require.Greater(t, len(head), 4)

	mid := len(head) / 2
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndStream, 1, head[:mid])))
	// Nothing delivered until the block completes.
	require.NotContains(t, h.events, "head 1 GET /")
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameContinuation, h2engine.FlagEndHeaders, 1, head[mid:])))
	require.Contains(t, h.events, "head 1 GET /")
	require.Contains(t, h.events, "tail 1")
}

func TestContinuationWrongStreamIsProtocolError(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	h2Handshake(t, c, sink)

	enc := hpack.New(4096)
	head := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
	})
	mid := len(head) / 2
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndStream, 1, head[:mid])))

	err := c.Consume(rawFrame(h2engine.FrameContinuation, h2engine.FlagEndHeaders, 3, head[mid:]))
	ce, ok := h2engine.AsConnError(err)
	require.True(t, ok)
	require.Equal(t, h2engine.Protocol, ce.Result)
}

// newRawClient builds a client whose outbound bytes land in a sink and
// walks it through the h2 handshake against a hand-rolled server side,
// returning the sink offset where post-handshake output starts.
func newRawClient(t *testing.T, handler h2engine.Handler) (*h2engine.Connection, *frameSink, int) {
	t.Helper()
	sink := &frameSink{}
	c := h2engine.NewClientConnection(hpack.New(4096), h1head.New(), handler, sink.writev, h2engine.DefaultConfig())
	require.NoError(t, c.Begin(h2engine.ModeH2))
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameSettings, 0, 0, nil)))
	require.Equal(t, h2engine.StateH2Frame, c.State())
	return c, sink, len(sink.raw)
}

func TestMalformedPushPromiseResetsPromisedStreamOnly(t *testing.T) {
	h := &eventLog{}
	c, sink, _ := newRawClient(t, h)

	require.NoError(t, c.WriteHead(1, &h2engine.Message{
		Method: []byte("GET"), Path: []byte("/"), Authority: []byte("x"), Scheme: []byte("https"),
	}, false))
	off := len(sink.raw)

	// A promise missing :path and :scheme fails validation.
	enc := hpack.New(4096)
	block := encodeBlock(t, enc, h2engine.HeaderList{hdr(":method", "GET")})
	payload := append([]byte{0, 0, 0, 2}, block...)
	require.NoError(t, c.Consume(rawFrame(h2engine.FramePushPromise, h2engine.FlagEndHeaders, 1, payload)))

	frames := sink.framesFrom(t, off)
	require.Len(t, frames, 1)
	require.Equal(t, h2engine.FrameRSTStream, frames[0].Header.Type)
	require.EqualValues(t, 2, frames[0].Header.Stream)
	require.EqualValues(t, h2engine.ProtocolErrorCode, frames[0].Payload[3])

	require.NotContains(t, h.events, "push 1 2")
	require.Contains(t, h.events, "end 2")

	// The connection (and the parent stream) survive.
	require.Equal(t, h2engine.StateH2Frame, c.State())
	require.NoError(t, c.Consume(rawFrame(h2engine.FramePing, 0, 0, make([]byte, 8))))
}

func TestRstStreamToleranceBeforeSizeCheck(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	h2Handshake(t, c, sink)

	enc := hpack.New(4096)
	head := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
	})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders, 1, head)))

	// Trailers without END_STREAM make the engine reset stream 1 itself.
	trailer := encodeBlock(t, enc, h2engine.HeaderList{hdr("x-sum", "abc")})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders, 1, trailer)))
	require.Contains(t, h.events, "end 1")

	// A wrong-size RST_STREAM for the just-reset stream is a late frame
	// on a dead stream: tolerated, not a connection error.
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameRSTStream, 0, 1, []byte{0, 0, 8})))
	require.Equal(t, h2engine.StateH2Frame, c.State())

	// On a live stream the size check still bites.
	head3 := encodeBlock(t, enc, h2engine.HeaderList{
		hdr(":method", "GET"), hdr(":scheme", "https"), hdr(":path", "/"),
	})
	require.NoError(t, c.Consume(rawFrame(h2engine.FrameHeaders, h2engine.FlagEndHeaders, 3, head3)))
	err := c.Consume(rawFrame(h2engine.FrameRSTStream, 0, 3, []byte{0, 0, 8}))
	ce, ok := h2engine.AsConnError(err)
	require.True(t, ok)
	require.Equal(t, h2engine.Protocol, ce.Result)
	require.Equal(t, h2engine.FrameSizeErrorCode, ce.Code)
}

func TestPriorityFrames(t *testing.T) {
	h := &eventLog{}
	c, sink := newRawServer(h, h2engine.DefaultConfig())
	off := h2Handshake(t, c, sink)

	// A well-formed PRIORITY is stripped without any state change.
	require.NoError(t, c.Consume(rawFrame(h2engine.FramePriority, 0, 3, []byte{0, 0, 0, 1, 16})))
	require.Empty(t, sink.framesFrom(t, off))
	require.Equal(t, []string{"settings"}, h.events)

	// PRIORITY on stream 0 is a connection error.
	err := c.Consume(rawFrame(h2engine.FramePriority, 0, 0, []byte{0, 0, 0, 3, 16}))
	ce, ok := h2engine.AsConnError(err)
	require.True(t, ok)
	require.Equal(t, h2engine.Protocol, ce.Result)

	frames := sink.framesFrom(t, off)
	require.Equal(t, h2engine.FrameGoAway, frames[len(frames)-1].Header.Type)
}
