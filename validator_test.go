package h2engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func req(pairs ...string) HeaderList {
	var hl HeaderList
	for i := 0; i+1 < len(pairs); i += 2 {
		hl = append(hl, Header{Name: []byte(pairs[i]), Value: []byte(pairs[i+1])})
	}
	return hl
}

func TestValidateRequestHappyPath(t *testing.T) {
	msg, _, _, ok := validateHeaderList(req(
		":method", "GET", ":scheme", "https", ":path", "/a", ":authority", "x",
		"accept", "*/*",
	), kindRequest, false, false)
	require.True(t, ok)
	require.Equal(t, "GET", string(msg.Method))
	require.Equal(t, "/a", string(msg.Path))
	require.Equal(t, "x", string(msg.Authority))
	// pseudo-headers are consumed, regular ones survive
	require.Len(t, msg.Headers, 1)
	require.Equal(t, "accept", string(msg.Headers[0].Name))
}

func TestValidateResponseExtractsStatus(t *testing.T) {
	msg, _, _, ok := validateHeaderList(req(":status", "204"), kindResponse, false, false)
	require.True(t, ok)
	require.Equal(t, 204, msg.Code)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		hl   HeaderList
		kind headerKind
	}{
		{"pseudo after regular", req("accept", "*/*", ":method", "GET"), kindRequest},
		{"duplicate method", req(":method", "GET", ":method", "GET", ":scheme", "https", ":path", "/"), kindRequest},
		{"unknown pseudo", req(":bogus", "1", ":method", "GET", ":scheme", "https", ":path", "/"), kindRequest},
		{"uppercase name", req(":method", "GET", ":scheme", "https", ":path", "/", "Accept", "*/*"), kindRequest},
		{"connection header", req(":method", "GET", ":scheme", "https", ":path", "/", "connection", "close"), kindRequest},
		{"te not trailers", req(":method", "GET", ":scheme", "https", ":path", "/", "te", "gzip"), kindRequest},
		{"bad content-length", req(":method", "GET", ":scheme", "https", ":path", "/", "content-length", "12x"), kindRequest},
		{"missing path", req(":method", "GET", ":scheme", "https"), kindRequest},
		{"missing status", req("server", "x"), kindResponse},
		{"status in request", req(":status", "200"), kindRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, ok := validateHeaderList(tc.hl, tc.kind, false, false)
			require.False(t, ok)
		})
	}
}

func TestValidateTrailerForbidsPseudoHeaders(t *testing.T) {
	_, _, _, ok := validateHeaderList(req(":status", "200"), kindResponse, true, true)
	require.False(t, ok)

	_, _, _, ok = validateHeaderList(req("x-checksum", "abc"), kindRequest, true, true)
	require.True(t, ok)
}

func TestValidateConnectNeedsNoPathOrScheme(t *testing.T) {
	_, _, _, ok := validateHeaderList(req(":method", "CONNECT", ":authority", "x:443"), kindRequest, false, false)
	require.True(t, ok)
}

func TestValidateContentLengthExtracted(t *testing.T) {
	_, n, has, ok := validateHeaderList(req(
		":method", "PUT", ":scheme", "https", ":path", "/", "content-length", "42",
	), kindRequest, false, false)
	require.True(t, ok)
	require.True(t, has)
	require.EqualValues(t, 42, n)
}

func TestValidateInformationalResponse(t *testing.T) {
	// 1xx with END_STREAM is malformed
	_, _, _, ok := validateHeaderList(req(":status", "100"), kindResponse, false, true)
	require.False(t, ok)

	// ... as is 1xx with a declared body
	_, _, _, ok = validateHeaderList(req(":status", "100", "content-length", "5"), kindResponse, false, false)
	require.False(t, ok)

	_, _, _, ok = validateHeaderList(req(":status", "100"), kindResponse, false, false)
	require.True(t, ok)
}

func TestParseStatusCodeBounds(t *testing.T) {
	code, ok := parseStatusCode([]byte("65535"))
	require.True(t, ok)
	require.Equal(t, 65535, code)

	_, ok = parseStatusCode([]byte("65536"))
	require.False(t, ok)
	_, ok = parseStatusCode([]byte(""))
	require.False(t, ok)
	_, ok = parseStatusCode([]byte("2x0"))
	require.False(t, ok)
}
