package h2engine

// resetHistorySize bounds the ring of recently-locally-reset stream
// ids. Sized to twice the bucket count so a burst of resets across
// every bucket is still remembered.
const resetHistorySize = 2 * buckets

// expectingHeadersBit is the reserved high bit used to flag "this
// stream was reset while its read half was still expecting HEADERS".
const expectingHeadersBit = uint32(1) << 31

// resetHistory remembers which streams this side reset recently, so
// frames still in flight from the peer on those streams are tolerated
// instead of tearing the connection down.
type resetHistory struct {
	ring [resetHistorySize]uint32
	next int
}

// record remembers that id was just reset locally, and whether its
// read half was still in HalfHeaders at the time.
func (r *resetHistory) record(id uint32, wasExpectingHeaders bool) {
	v := id
	if wasExpectingHeaders {
		v |= expectingHeadersBit
	}
	r.ring[r.next] = v
	r.next = (r.next + 1) % resetHistorySize
}

// tolerates reports whether a frame of kind arriving for id should be
// silently decoded-and-discarded instead of raising a connection
// error. A stream reset while expecting HEADERS
// tolerates any further frame except DATA (a late DATA there would be
// a real protocol violation); a stream reset mid-DATA tolerates
// anything except HEADERS.
func (r *resetHistory) tolerates(id uint32, kind FrameType) bool {
	for _, v := range r.ring {
		if v == 0 {
			continue
		}
		sid := v &^ expectingHeadersBit
		if sid != id {
			continue
		}
		wasExpectingHeaders := v&expectingHeadersBit != 0
		if wasExpectingHeaders {
			if kind != FrameData {
				return true
			}
		} else {
			if kind != FrameHeaders {
				return true
			}
		}
	}
	return false
}
