package h2engine

import (
	"errors"
	"fmt"
)

// ErrorCode is an RFC 7540 §11.4 error code, carried on RST_STREAM and
// GOAWAY frames.
type ErrorCode uint32

const (
	NoError              ErrorCode = 0x0
	ProtocolErrorCode    ErrorCode = 0x1
	InternalErrorCode    ErrorCode = 0x2
	FlowControlErrorCode ErrorCode = 0x3
	SettingsTimeoutError ErrorCode = 0x4
	StreamClosedError    ErrorCode = 0x5
	FrameSizeErrorCode   ErrorCode = 0x6
	RefusedStreamError   ErrorCode = 0x7
	CancelError          ErrorCode = 0x8
	CompressionErrorCode ErrorCode = 0x9
	ConnectErrorCode     ErrorCode = 0xa
	EnhanceYourCalm      ErrorCode = 0xb
	InadequateSecurity   ErrorCode = 0xc
	HTTP11Required       ErrorCode = 0xd
)

var errorCodeNames = [...]string{
	NoError:              "NO_ERROR",
	ProtocolErrorCode:    "PROTOCOL_ERROR",
	InternalErrorCode:    "INTERNAL_ERROR",
	FlowControlErrorCode: "FLOW_CONTROL_ERROR",
	SettingsTimeoutError: "SETTINGS_TIMEOUT",
	StreamClosedError:    "STREAM_CLOSED",
	FrameSizeErrorCode:   "FRAME_SIZE_ERROR",
	RefusedStreamError:   "REFUSED_STREAM",
	CancelError:          "CANCEL",
	CompressionErrorCode: "COMPRESSION_ERROR",
	ConnectErrorCode:     "CONNECT_ERROR",
	EnhanceYourCalm:      "ENHANCE_YOUR_CALM",
	InadequateSecurity:   "INADEQUATE_SECURITY",
	HTTP11Required:       "HTTP_1_1_REQUIRED",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) && errorCodeNames[c] != "" {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("ERROR_CODE(0x%x)", uint32(c))
}

// Result is the coarse outcome the embedder sees from Consume, Begin,
// Eof and the writer APIs.
type Result int8

const (
	OK Result = iota
	Disconnect
	Protocol
	InvalidStream
	WouldBlock
	NoMemory
	NotImplemented
	Assertion
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case Disconnect:
		return "DISCONNECT"
	case Protocol:
		return "PROTOCOL"
	case InvalidStream:
		return "INVALID_STREAM"
	case WouldBlock:
		return "WOULD_BLOCK"
	case NoMemory:
		return "NO_MEMORY"
	case NotImplemented:
		return "NOT_IMPLEMENTED"
	case Assertion:
		return "ASSERTION"
	}
	return "UNKNOWN"
}

// ConnError is the error type every engine entry point returns once a
// non-OK Result occurs. Code is only meaningful when Result is
// Protocol: it is the RFC 7540 error code of the violation (for a
// GOAWAY received from the peer, the peer's code).
type ConnError struct {
	Result Result
	Code   ErrorCode
}

func (e *ConnError) Error() string {
	if e.Result == Protocol {
		return fmt.Sprintf("h2engine: %s: %s", e.Result, e.Code)
	}
	return fmt.Sprintf("h2engine: %s", e.Result)
}

// newProtocolError builds a PROTOCOL error carrying code. When it
// reaches the Consume/Begin boundary, fail() sends GOAWAY(code) unless
// a handler already sent one.
func newProtocolError(code ErrorCode) *ConnError {
	return &ConnError{Result: Protocol, Code: code}
}

// AsConnError extracts the *ConnError behind err, if any.
func AsConnError(err error) (*ConnError, bool) {
	var ce *ConnError
	ok := errors.As(err, &ce)
	return ce, ok
}

var (
	// ErrDisconnect is returned once the peer (or local policy) has
	// ended the connection; no further Consume calls are meaningful.
	ErrDisconnect = &ConnError{Result: Disconnect}
	// ErrInvalidStream signals local misuse (writing on a closed
	// half, referencing an unknown stream) with no wire emission.
	ErrInvalidStream = &ConnError{Result: InvalidStream}
	// ErrWouldBlock signals that opening a new local stream would
	// exceed the peer-advertised concurrency limit.
	ErrWouldBlock = &ConnError{Result: WouldBlock}
	// ErrNotImplemented is returned for explicit non-goals: splitting
	// an oversized PADDED frame, and WriteFrame asked to send DATA.
	ErrNotImplemented = &ConnError{Result: NotImplemented}
	// ErrAssertion signals an internal invariant violation (e.g.
	// asking the splitter to split a frame type that must never be
	// split).
	ErrAssertion = &ConnError{Result: Assertion}

	// errMissingBytes is an internal sentinel: the caller has fewer
	// bytes buffered than the frame/field being decoded needs. It
	// never escapes to the embedder; state handlers translate it to
	// "need more data".
	errMissingBytes = errors.New("h2engine: not enough buffered bytes")
)
