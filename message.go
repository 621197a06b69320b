package h2engine

// Message is the unified shape delivered by OnMessageHead and
// OnMessagePush for both the HTTP/1 and HTTP/2 paths.
type Message struct {
	// Method, Path, Authority, Scheme carry the request pseudo-headers
	// (or their h1 start-line/Host equivalents). Code carries the
	// response status, 0 for requests.
	Method    []byte
	Path      []byte
	Authority []byte
	Scheme    []byte
	Code      int

	// Headers holds the regular (non-pseudo) header fields, in wire
	// order, with pseudo-headers already consumed/removed.
	Headers HeaderList

	// Final reports whether this message arrived with END_STREAM (h2)
	// or has no body (h1), so the caller can expect a following
	// on_message_tail with no data in between.
	Final bool
}

// IsRequest reports whether m looks like a request (no status code
// recorded).
func (m *Message) IsRequest() bool {
	return m.Code == 0
}

// IsConnect reports whether m is a CONNECT request.
func (m *Message) IsConnect() bool {
	return equalFold(m.Method, strConnect)
}

// IsInformational reports whether m is a 1xx response.
func (m *Message) IsInformational() bool {
	return m.Code >= 100 && m.Code < 200
}

func equalFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}
	return true
}
