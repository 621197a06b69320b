package h2engine

// FrameInfo is the observability shape handed to on_frame: just enough
// to log or trace without exposing the engine's internal frame codec
// types.
type FrameInfo struct {
	Type   FrameType
	Flags  FrameFlags
	Stream uint32
	Length int
}

// Handler is the engine's full callback surface. Every method
// returning a non-nil error aborts the in-flight API call with that
// error. Embed NopHandler to implement only the events a given host
// cares about.
type Handler interface {
	OnStreamStart(streamID uint32) error
	OnStreamEnd(streamID uint32) error

	OnMessageHead(streamID uint32, msg *Message) error
	OnMessageData(streamID uint32, data []byte) error
	OnMessageTail(streamID uint32, trailers HeaderList) error
	OnMessagePush(parentID uint32, msg *Message, promisedID uint32) error

	OnFrame(fr FrameInfo) error
	OnSettings() error
	OnFlowIncrease(streamID uint32) error
	OnPong(payload [8]byte) error
	OnUpgrade() error
}

// NopHandler implements Handler with every method a no-op returning
// nil. Embed it and override only what you need.
type NopHandler struct{}

func (NopHandler) OnStreamStart(uint32) error                 { return nil }
func (NopHandler) OnStreamEnd(uint32) error                   { return nil }
func (NopHandler) OnMessageHead(uint32, *Message) error        { return nil }
func (NopHandler) OnMessageData(uint32, []byte) error          { return nil }
func (NopHandler) OnMessageTail(uint32, HeaderList) error       { return nil }
func (NopHandler) OnMessagePush(uint32, *Message, uint32) error { return nil }
func (NopHandler) OnFrame(FrameInfo) error                      { return nil }
func (NopHandler) OnSettings() error                            { return nil }
func (NopHandler) OnFlowIncrease(uint32) error                  { return nil }
func (NopHandler) OnPong([8]byte) error                         { return nil }
func (NopHandler) OnUpgrade() error                             { return nil }

var _ Handler = NopHandler{}

// Writev is the single vectored-write callback the engine uses for all
// outbound bytes; buffers passed to a single Writev call form one
// logical message the transport must not reorder or split across
// separate underlying writes.
type Writev func(buffers [][]byte) error
