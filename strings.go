package h2engine

// Well-known header names, kept as a shared set of byte slices rather
// than re-allocating string literals at every comparison site.
var (
	strMethod    = []byte(":method")
	strPath      = []byte(":path")
	strAuthority = []byte(":authority")
	strScheme    = []byte(":scheme")
	strStatus    = []byte(":status")

	strConnection       = []byte("connection")
	strTE                = []byte("te")
	strTrailers          = []byte("trailers")
	strContentLength     = []byte("content-length")
	strTransferEncoding  = []byte("transfer-encoding")
	strHost              = []byte("host")
	strUpgrade           = []byte("upgrade")
	strHTTP2Settings     = []byte("http2-settings")

	strChunked  = []byte("chunked")
	strIdentity = []byte("identity")
	strH2C      = []byte("h2c")

	strConnect = []byte("CONNECT")
	strHead    = []byte("HEAD")
)

// preface is the 24-octet connection preface every client must send
// and every server must validate before any frame.
//
// https://httpwg.org/specs/rfc7540.html#ConnectionHeader
var preface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")
