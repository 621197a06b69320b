// Package hpack is the production HeaderCodec: a thin adapter over
// golang.org/x/net/http2/hpack's RFC 7541 encoder/decoder.
package hpack

import (
	"bytes"

	"github.com/kasurni/h2engine"
	"golang.org/x/net/http2/hpack"
)

// Codec implements h2engine.HeaderCodec. Not safe for concurrent use;
// callers give one Codec to one Connection, same as every other
// per-connection collaborator.
type Codec struct {
	enc    *hpack.Encoder
	encBuf bytes.Buffer

	dec    *hpack.Decoder
	fields h2engine.HeaderList
}

// New returns a Codec whose decoder's dynamic table starts at
// initialTableSize (the caller's own SETTINGS_HEADER_TABLE_SIZE, the
// size a well-behaved peer is bound to).
func New(initialTableSize uint32) *Codec {
	c := &Codec{}
	c.enc = hpack.NewEncoder(&c.encBuf)
	c.dec = hpack.NewDecoder(initialTableSize, c.emit)
	return c
}

func (c *Codec) emit(f hpack.HeaderField) {
	c.fields = append(c.fields, h2engine.Header{
		Name:  []byte(f.Name),
		Value: []byte(f.Value),
	})
}

// Decode implements h2engine.HeaderCodec.
func (c *Codec) Decode(block []byte) (h2engine.HeaderList, error) {
	c.fields = c.fields[:0]
	if _, err := c.dec.Write(block); err != nil {
		return nil, err
	}
	if err := c.dec.Close(); err != nil {
		return nil, err
	}
	out := make(h2engine.HeaderList, len(c.fields))
	copy(out, c.fields)
	return out, nil
}

// Encode implements h2engine.HeaderCodec.
func (c *Codec) Encode(dst []byte, headers h2engine.HeaderList) ([]byte, error) {
	c.encBuf.Reset()
	for _, h := range headers {
		err := c.enc.WriteField(hpack.HeaderField{Name: string(h.Name), Value: string(h.Value)})
		if err != nil {
			return nil, err
		}
	}
	return append(dst, c.encBuf.Bytes()...), nil
}

// SetMaxDynamicTableSize implements h2engine.HeaderCodec: bounds our
// encoder's table to what the peer just told us it will track
// (SETTINGS_HEADER_TABLE_SIZE applies to the table the remote peer
// maintains for frames we send it, RFC 7541 §4.2).
func (c *Codec) SetMaxDynamicTableSize(size uint32) {
	c.enc.SetMaxDynamicTableSize(size)
}

var _ h2engine.HeaderCodec = (*Codec)(nil)
