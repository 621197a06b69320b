// Package h1head is the production HeadParser: it wraps
// fasthttp.RequestHeader/ResponseHeader behind the engine's
// HeadParser interface, turning a parsed head into the same Message
// shape the HTTP/2 path produces.
package h1head

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/kasurni/h2engine"
	"github.com/kasurni/h2engine/internal/wire"
	"github.com/valyala/fasthttp"
)

// Parser implements h2engine.HeadParser. Not safe for concurrent use;
// one Parser per Connection, reusing its scratch fasthttp headers
// across messages the way fasthttp's own Server reuses a ctx.
type Parser struct {
	req fasthttp.RequestHeader
	res fasthttp.ResponseHeader
}

// New returns a ready-to-use Parser.
func New() *Parser { return &Parser{} }

// ParseRequest implements h2engine.HeadParser.
func (p *Parser) ParseRequest(buf []byte) (int, int, *h2engine.Message, error) {
	p.req.Reset()
	br := bufio.NewReaderSize(bytes.NewReader(buf), len(buf))
	if err := p.req.Read(br); err != nil {
		if isTruncated(err) {
			return 0, 0, nil, h2engine.ErrHeadNeedMore
		}
		return 0, 0, nil, err
	}
	n := len(buf) - br.Buffered()

	msg := &h2engine.Message{
		Method: copyBytes(p.req.Method()),
		Path:   copyBytes(p.req.RequestURI()),
	}
	p.req.VisitAll(func(k, v []byte) {
		msg.Headers = append(msg.Headers, h2engine.Header{Name: lowerCopy(k), Value: copyBytes(v)})
	})
	// fasthttp swallows Transfer-Encoding into its content-length
	// sentinel; resurface it so the engine sees the chunked framing.
	if p.req.ContentLength() == -1 {
		msg.Headers = append(msg.Headers, h2engine.Header{Name: []byte("transfer-encoding"), Value: []byte("chunked")})
	}

	return n, minorVersionOf(p.req.IsHTTP11()), msg, nil
}

// ParseResponse implements h2engine.HeadParser.
func (p *Parser) ParseResponse(buf []byte) (int, int, *h2engine.Message, error) {
	p.res.Reset()
	br := bufio.NewReaderSize(bytes.NewReader(buf), len(buf))
	if err := p.res.Read(br); err != nil {
		if isTruncated(err) {
			return 0, 0, nil, h2engine.ErrHeadNeedMore
		}
		return 0, 0, nil, err
	}
	n := len(buf) - br.Buffered()

	msg := &h2engine.Message{Code: p.res.StatusCode()}
	p.res.VisitAll(func(k, v []byte) {
		msg.Headers = append(msg.Headers, h2engine.Header{Name: lowerCopy(k), Value: copyBytes(v)})
	})
	if p.res.ContentLength() == -1 {
		msg.Headers = append(msg.Headers, h2engine.Header{Name: []byte("transfer-encoding"), Value: []byte("chunked")})
	}

	return n, minorVersionOf(p.res.IsHTTP11()), msg, nil
}

func minorVersionOf(isHTTP11 bool) int {
	if isHTTP11 {
		return 1
	}
	return 0
}

// isTruncated reports whether err means the head does not end within
// buf. The bufio.Reader is sized to exactly len(buf), so fasthttp's
// small-read-buffer error also means the head is incomplete.
func isTruncated(err error) bool {
	var small *fasthttp.ErrSmallBuffer
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &small)
}

func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

func lowerCopy(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if lc := wire.LowerToken(c); lc != 0 {
			out[i] = lc
		} else {
			out[i] = c
		}
	}
	return out
}

var _ h2engine.HeadParser = (*Parser)(nil)
