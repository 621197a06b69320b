package h2engine

// HalfState is the state of one direction (read or write) of a
// Stream; the two halves advance independently.
type HalfState int8

const (
	HalfHeaders HalfState = iota
	HalfData
	HalfClosed
)

func (s HalfState) String() string {
	switch s {
	case HalfHeaders:
		return "HEADERS"
	case HalfData:
		return "DATA"
	case HalfClosed:
		return "CLOSED"
	}
	return "?"
}

// noContentLength marks Stream.RemainingPayload as undeclared: no
// Content-Length/declared length was seen, so end-of-stream cannot be
// checked for a short read.
const noContentLength = -1

// Stream is one HTTP/2 stream (or, in h1 mode, the single in-flight
// message), owned exclusively by its Connection.
type Stream struct {
	id uint32

	// local reports whether this stream was opened by us (true) or
	// the peer (false); used for the parity invariant and for
	// deciding who may push/reset.
	local bool

	ReadState  HalfState
	WriteState HalfState

	WritingChunked      bool
	ReadingHeadResponse bool

	WindowRecv int64
	WindowSend int64

	// RemainingPayload is the declared Content-Length countdown, or
	// noContentLength if none was declared.
	RemainingPayload int64

}

// ID returns the stream's 31-bit identifier.
func (s *Stream) ID() uint32 { return s.id }

// Local reports whether this stream was opened locally.
func (s *Stream) Local() bool { return s.local }

// Closed reports whether both halves have been closed, i.e. the
// stream is due for destruction.
func (s *Stream) Closed() bool {
	return s.ReadState == HalfClosed && s.WriteState == HalfClosed
}

// declareContentLength records a parsed Content-Length value.
func (s *Stream) declareContentLength(n uint64) {
	s.RemainingPayload = int64(n)
}

// hasDeclaredLength reports whether a Content-Length was seen.
func (s *Stream) hasDeclaredLength() bool {
	return s.RemainingPayload != noContentLength
}
