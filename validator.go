package h2engine

import "github.com/kasurni/h2engine/internal/wire"

// headerKind tells the validator which pseudo-header set is legal and
// which extracted fields matter.
type headerKind int8

const (
	kindRequest headerKind = iota
	kindResponse
	kindPromise
)

// validateHeaders runs the RFC 7540 §8.1.2 header rules against a
// decoded header list, returning the synthesized Message and the
// parsed (possibly absent) content-length. Inbound HEADERS carry
// responses on a client and requests on a server, pushed streams
// included. Any rule violation reports ok=false; the caller resets the
// stream with PROTOCOL_ERROR.
func (c *Connection) validateHeaders(hl HeaderList, isTrailer, endStream bool) (msg *Message, contentLength uint64, hasContentLength bool, ok bool) {
	kind := kindRequest
	if c.client {
		kind = kindResponse
	}
	return validateHeaderList(hl, kind, isTrailer, endStream)
}

func validateHeaderList(hl HeaderList, kind headerKind, isTrailer, endStream bool) (msg *Message, contentLength uint64, hasContentLength, ok bool) {
	msg = &Message{}
	seenRegular := false
	var statusSeen, pathSeen, methodSeen, authoritySeen, schemeSeen bool

	for _, h := range hl {
		if h.IsPseudo() {
			if seenRegular {
				return nil, 0, false, false // pseudo-header after a regular one
			}
			if isTrailer {
				return nil, 0, false, false // pseudo-headers forbidden in trailers
			}
			switch {
			case kind == kindResponse && string(h.Name) == string(strStatus):
				if statusSeen {
					return nil, 0, false, false
				}
				statusSeen = true
				code, valid := parseStatusCode(h.Value)
				if !valid {
					return nil, 0, false, false
				}
				msg.Code = code
			case kind != kindResponse && string(h.Name) == string(strPath):
				if pathSeen {
					return nil, 0, false, false
				}
				pathSeen = true
				msg.Path = h.Value
			case kind != kindResponse && string(h.Name) == string(strMethod):
				if methodSeen {
					return nil, 0, false, false
				}
				methodSeen = true
				msg.Method = h.Value
			case kind != kindResponse && string(h.Name) == string(strAuthority):
				if authoritySeen {
					return nil, 0, false, false
				}
				authoritySeen = true
				msg.Authority = h.Value
			case kind != kindResponse && string(h.Name) == string(strScheme):
				if schemeSeen {
					return nil, 0, false, false
				}
				schemeSeen = true
				msg.Scheme = h.Value
			default:
				return nil, 0, false, false // unknown pseudo-header
			}
			continue
		}

		seenRegular = true
		if !wire.IsLowerToken(h.Name) {
			return nil, 0, false, false // uppercase or non-token name
		}
		if string(h.Name) == string(strConnection) {
			return nil, 0, false, false // connection-specific header
		}
		if string(h.Name) == string(strTE) && string(h.Value) != string(strTrailers) {
			return nil, 0, false, false // te may only carry "trailers"
		}
		if string(h.Name) == string(strContentLength) {
			n, valid := parseUintDecimal(h.Value)
			if !valid {
				return nil, 0, false, false // unparseable content-length
			}
			contentLength, hasContentLength = n, true
		}
		msg.Headers = append(msg.Headers, h)
	}

	if !isTrailer {
		if kind == kindResponse {
			if !statusSeen {
				return nil, 0, false, false // a response must carry :status
			}
		} else if !equalFold(msg.Method, strConnect) {
			if len(msg.Method) == 0 || len(msg.Path) == 0 || len(msg.Scheme) == 0 {
				return nil, 0, false, false // non-CONNECT requires method, path, scheme
			}
		}
	}

	if msg.IsInformational() && (endStream || hasContentLength) {
		return nil, 0, false, false // 1xx carries neither a body nor END_STREAM
	}

	return msg, contentLength, hasContentLength, true
}
