// Package buffer provides the single dynamic byte buffer the engine
// keeps per connection: append incoming bytes, view the unconsumed
// prefix, and shift-left once a state handler has consumed some of it.
// Backed by bytebufferpool so repeated Consume/Shift cycles on a
// long-lived connection don't churn the allocator the way a plain
// growing []byte would.
package buffer

import (
	"github.com/valyala/bytebufferpool"
)

// Buffer is a growable byte buffer with cheap prefix-consumption.
//
// Buffer is not safe for concurrent use; callers serialize access the
// same way the engine serializes all mutation of a Connection.
type Buffer struct {
	bb *bytebufferpool.ByteBuffer
}

// New returns an empty, pool-backed Buffer.
func New() *Buffer {
	return &Buffer{bb: bytebufferpool.Get()}
}

// Release returns the backing storage to the pool. The Buffer must not
// be used afterwards.
func (b *Buffer) Release() {
	bytebufferpool.Put(b.bb)
	b.bb = nil
}

// Append copies p onto the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.bb.Write(p) //nolint:errcheck // ByteBuffer.Write never errors
}

// Bytes returns the unconsumed contents. The slice is invalidated by
// the next Append or Shift call.
func (b *Buffer) Bytes() []byte {
	return b.bb.B
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.bb.B)
}

// Shift discards the first n bytes, moving the remainder to the front.
func (b *Buffer) Shift(n int) {
	if n <= 0 {
		return
	}
	buf := b.bb.B
	if n >= len(buf) {
		b.bb.Reset()
		return
	}
	rest := copy(buf, buf[n:])
	b.bb.B = buf[:rest]
}

// Reset discards all unconsumed bytes without releasing the buffer.
func (b *Buffer) Reset() {
	b.bb.Reset()
}
