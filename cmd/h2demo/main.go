// Command h2demo is a minimal TCP runner around h2engine.Connection:
// the engine has no socket of its own, so this binary is the thinnest
// possible embedder, logging the handler callbacks it sees.
package main

import (
	"flag"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/kasurni/h2engine"
	"github.com/kasurni/h2engine/h1head"
	"github.com/kasurni/h2engine/hpack"
)

var listenArg = flag.String("addr", ":8080", "address to listen on")

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ln, err := net.Listen("tcp", *listenArg)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("listening", zap.String("addr", *listenArg))

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Error("accept failed", zap.Error(err))
			continue
		}
		go serve(conn, logger.With(zap.String("remote", conn.RemoteAddr().String())))
	}
}

func serve(conn net.Conn, log *zap.Logger) {
	defer conn.Close()

	writev := func(buffers [][]byte) error {
		bufs := net.Buffers(buffers)
		_, err := bufs.WriteTo(conn)
		return err
	}

	h := &demoHandler{log: log}
	c := h2engine.NewServerConnection(hpack.New(4096), h1head.New(), h, writev, h2engine.DefaultConfig())
	h.conn = c

	buf := make([]byte, 16*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if cerr := c.Consume(buf[:n]); cerr != nil {
				log.Info("connection ended", zap.Error(cerr))
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Warn("read failed", zap.Error(err))
			}
			c.Eof() //nolint:errcheck
			return
		}
	}
}

// demoHandler implements h2engine.Handler by logging stream starts,
// stream ends and request heads, and replying 404 to every request
// that arrives without a body (a request with a body gets no reply),
// enough to exercise the FSM over a real socket without pulling in a
// routing layer.
type demoHandler struct {
	h2engine.NopHandler
	log  *zap.Logger
	conn *h2engine.Connection
}

func (h *demoHandler) OnStreamStart(id uint32) error {
	h.log.Debug("stream start", zap.Uint32("stream", id))
	return nil
}

func (h *demoHandler) OnStreamEnd(id uint32) error {
	h.log.Debug("stream end", zap.Uint32("stream", id))
	return nil
}

func (h *demoHandler) OnMessageHead(id uint32, msg *h2engine.Message) error {
	h.log.Info("request",
		zap.Uint32("stream", id),
		zap.ByteString("method", msg.Method),
		zap.ByteString("path", msg.Path),
	)
	if !msg.Final {
		return nil
	}
	return h.conn.WriteHead(id, &h2engine.Message{Code: 404}, true)
}
