package h2engine

import "errors"

// HeaderCodec is the injected HPACK collaborator: a byte-level
// encoder/decoder plus a dynamic-table size limit.
// The engine only ever calls Decode for inbound HEADERS/PUSH_PROMISE/
// CONTINUATION payloads (even on reset streams, to preserve dynamic
// table state) and Encode when writing. See the hpack subpackage for
// the production implementation backed by golang.org/x/net/http2/hpack.
type HeaderCodec interface {
	// Decode turns an HPACK block into a header list, in wire order.
	Decode(block []byte) (HeaderList, error)
	// Encode appends the HPACK encoding of headers to dst and returns
	// the new dst.
	Encode(dst []byte, headers HeaderList) ([]byte, error)
	// SetMaxDynamicTableSize bounds the encoder's (our outbound)
	// dynamic table, per the negotiated SETTINGS_HEADER_TABLE_SIZE.
	// The decoder's table is not affected.
	SetMaxDynamicTableSize(size uint32)
}

// HeadParser is the injected HTTP/1.x head tokenizer collaborator.
// Implementations must never block: given
// fewer bytes than a full head, they return ErrHeadNeedMore.
type HeadParser interface {
	// ParseRequest parses a request line + headers from buf. n is the
	// number of bytes consumed on success.
	ParseRequest(buf []byte) (n int, minorVersion int, msg *Message, err error)
	// ParseResponse parses a status line + headers from buf.
	ParseResponse(buf []byte) (n int, minorVersion int, msg *Message, err error)
}

// Sentinel errors a HeadParser implementation returns to drive the
// H1_HEAD state handler.
var (
	ErrHeadNeedMore  = errMissingBytes
	ErrHeadMalformed = errors.New("h2engine: malformed HTTP/1 head")
)
