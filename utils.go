package h2engine

import "github.com/kasurni/h2engine/internal/wire"

// stripPadded applies the PADDED framing rule: the first octet is a
// pad length, and the payload is narrowed to exclude both that octet
// and the trailing padding.
func stripPadded(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, newProtocolError(ProtocolErrorCode)
	}
	padLen := int(payload[0])
	rest := payload[1:]
	if padLen > len(rest) {
		return nil, newProtocolError(ProtocolErrorCode)
	}
	return rest[:len(rest)-padLen], nil
}

// stripPriorityBlock narrows payload past a 5-octet priority block
// (exclusive bit | 31-bit stream dependency, then an 8-bit weight).
func stripPriorityBlock(payload []byte) (rest []byte, dep uint32, exclusive bool, weight uint8, ok bool) {
	if len(payload) < 5 {
		return payload, 0, false, 0, false
	}
	raw := wire.BytesToUint32(payload[:4])
	exclusive = raw&(1<<31) != 0
	dep = raw &^ (1 << 31)
	weight = payload[4]
	return payload[5:], dep, exclusive, weight, true
}

func parseStatusCode(b []byte) (int, bool) {
	if len(b) == 0 || len(b) > 5 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > 65535 {
		return 0, false
	}
	return n, true
}

func parseUintDecimal(b []byte) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > (^uint64(0)-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

// hasPrefix reports whether partial (truncated to len(full) if longer)
// matches the start of full, used to validate a not-yet-fully-buffered
// connection preface byte by byte.
func hasPrefix(full, partial []byte) bool {
	if len(partial) > len(full) {
		partial = partial[:len(full)]
	}
	for i := range partial {
		if full[i] != partial[i] {
			return false
		}
	}
	return true
}
