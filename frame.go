package h2engine

// splittable reports whether the splitter may ever be asked to split
// frames of type t. Anything else reaching the splitter with an
// oversized payload is a bug in the writer, not a peer-facing
// condition.
func splittable(t FrameType) bool {
	return t == FrameData || t == FrameHeaders || t == FramePushPromise
}

// writeFrame emits a single frame (header + payload) via one Writev
// call, splitting it across multiple frames first if payload exceeds
// maxFrameSize. This is the only place frames are put on the wire, so
// every writer API (WriteHead, WriteData, WritePush, ...) funnels
// through it.
func writeFrame(writev Writev, h FrameHeader, payload []byte, maxFrameSize uint32) error {
	if uint32(len(payload)) <= maxFrameSize {
		h.Length = uint32(len(payload))
		var hdr [FrameHeaderSize]byte
		h.Encode(hdr[:])
		return writev([][]byte{hdr[:], payload})
	}

	if h.Flags.Has(FlagPadded) {
		return ErrNotImplemented
	}
	if !splittable(h.Type) {
		return ErrAssertion
	}

	switch h.Type {
	case FrameData:
		return splitData(writev, h, payload, maxFrameSize)
	case FrameHeaders, FramePushPromise:
		return splitHeaderBlock(writev, h, payload, maxFrameSize)
	default:
		return ErrAssertion
	}
}

// splitData splits an oversized DATA payload: type stays DATA
// throughout, and END_STREAM (if set) moves from the first frame to
// the last.
func splitData(writev Writev, h FrameHeader, payload []byte, maxFrameSize uint32) error {
	endStream := h.Flags.Has(FlagEndStream)
	first := h
	first.Flags &^= FlagEndStream

	for len(payload) > 0 {
		n := uint32(len(payload))
		if n > maxFrameSize {
			n = maxFrameSize
		}
		chunk := payload[:n]
		payload = payload[n:]

		fh := first
		if len(payload) == 0 && endStream {
			fh.Flags |= FlagEndStream
		}
		fh.Length = uint32(len(chunk))

		var hdr [FrameHeaderSize]byte
		fh.Encode(hdr[:])
		if err := writev([][]byte{hdr[:], chunk}); err != nil {
			return err
		}
	}
	return nil
}

// splitHeaderBlock splits an oversized HEADERS/PUSH_PROMISE block per
// RFC 7540 §6.10: the first frame keeps its original type and all
// flags except END_HEADERS; every following frame is CONTINUATION
// with PRIORITY and END_STREAM masked off; the last frame carries
// END_HEADERS.
func splitHeaderBlock(writev Writev, h FrameHeader, payload []byte, maxFrameSize uint32) error {
	endHeaders := h.Flags.Has(FlagEndHeaders)

	first := true
	for len(payload) > 0 || first {
		n := uint32(len(payload))
		if n > maxFrameSize {
			n = maxFrameSize
		}
		chunk := payload[:n]
		payload = payload[n:]
		last := len(payload) == 0

		fh := h
		if first {
			fh.Flags &^= FlagEndHeaders
		} else {
			fh.Type = FrameContinuation
			fh.Flags &^= FlagPriority | FlagEndStream | FlagEndHeaders
		}
		if last && endHeaders {
			fh.Flags |= FlagEndHeaders
		}
		fh.Length = uint32(len(chunk))

		var hdr [FrameHeaderSize]byte
		fh.Encode(hdr[:])
		if err := writev([][]byte{hdr[:], chunk}); err != nil {
			return err
		}
		first = false
	}
	return nil
}
