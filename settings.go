package h2engine

import (
	"github.com/kasurni/h2engine/internal/wire"
)

// Param indexes the fixed six-slot settings vector.
type Param int

const (
	ParamHeaderTableSize Param = iota
	ParamEnablePush
	ParamMaxConcurrentStreams
	ParamInitialWindowSize
	ParamMaxFrameSize
	ParamMaxHeaderListSize
	numParams
)

// Wire identifiers for the six tracked parameters.
//
// https://httpwg.org/specs/rfc7540.html#SettingValues
const (
	wireHeaderTableSize      uint16 = 0x1
	wireEnablePush           uint16 = 0x2
	wireMaxConcurrentStreams uint16 = 0x3
	wireInitialWindowSize    uint16 = 0x4
	wireMaxFrameSize         uint16 = 0x5
	wireMaxHeaderListSize    uint16 = 0x6
)

var paramByWireID = map[uint16]Param{
	wireHeaderTableSize:      ParamHeaderTableSize,
	wireEnablePush:           ParamEnablePush,
	wireMaxConcurrentStreams: ParamMaxConcurrentStreams,
	wireInitialWindowSize:    ParamInitialWindowSize,
	wireMaxFrameSize:         ParamMaxFrameSize,
	wireMaxHeaderListSize:    ParamMaxHeaderListSize,
}

var wireIDByParam = [numParams]uint16{
	ParamHeaderTableSize:      wireHeaderTableSize,
	ParamEnablePush:           wireEnablePush,
	ParamMaxConcurrentStreams: wireMaxConcurrentStreams,
	ParamInitialWindowSize:    wireInitialWindowSize,
	ParamMaxFrameSize:         wireMaxFrameSize,
	ParamMaxHeaderListSize:    wireMaxHeaderListSize,
}

const (
	// Unlimited marks MaxConcurrentStreams/MaxHeaderListSize as
	// having no sender-imposed bound.
	Unlimited = ^uint32(0)

	minMaxFrameSize = 1 << 14
	maxMaxFrameSize = 1<<24 - 1
	maxWindowSize   = 1<<31 - 1
)

// Settings is the fixed-index parameter vector for one side (local or
// remote) of a connection. Keeping it a vector lets delta-encoding
// walk it generically rather than via six hand-written if-blocks.
type Settings struct {
	v [numParams]uint32
}

// Get returns the current value of p.
func (s Settings) Get(p Param) uint32 { return s.v[p] }

// Set stores v at p.
func (s *Settings) Set(p Param, v uint32) { s.v[p] = v }

// StandardSettings returns the RFC 7540 §6.5.2 default values: the
// settings a peer must assume before receiving any SETTINGS frame.
func StandardSettings() Settings {
	return Settings{v: [numParams]uint32{
		ParamHeaderTableSize:      4096,
		ParamEnablePush:           1,
		ParamMaxConcurrentStreams: Unlimited,
		ParamInitialWindowSize:    65535,
		ParamMaxFrameSize:         minMaxFrameSize,
		ParamMaxHeaderListSize:    Unlimited,
	}}
}

// InitialSettings is the value the remote vector is seeded with in
// H2_SETTINGS before the peer's first SETTINGS frame is applied as a
// delta on top; by definition it equals StandardSettings.
func InitialSettings() Settings { return StandardSettings() }

// ConservativeSettings is the engine's own default local posture,
// bounding concurrency and memory use instead of advertising
// unlimited streams.
func ConservativeSettings() Settings {
	return Settings{v: [numParams]uint32{
		ParamHeaderTableSize:      4096,
		ParamEnablePush:           1,
		ParamMaxConcurrentStreams: 100,
		ParamInitialWindowSize:    65535,
		ParamMaxFrameSize:         minMaxFrameSize,
		ParamMaxHeaderListSize:    Unlimited,
	}}
}

// Validate checks the three settings invariants of RFC 7540 §6.5.2,
// returning the error code for the first violation found.
func (s Settings) Validate() (ErrorCode, bool) {
	if v := s.Get(ParamEnablePush); v > 1 {
		return ProtocolErrorCode, false
	}
	if v := s.Get(ParamInitialWindowSize); v > maxWindowSize {
		return FlowControlErrorCode, false
	}
	if v := s.Get(ParamMaxFrameSize); v < minMaxFrameSize || v > maxMaxFrameSize {
		return ProtocolErrorCode, false
	}
	return NoError, true
}

// EncodeDelta appends a SETTINGS payload to dst containing only the
// parameters that differ between prev and cur, each as a 6-octet
// entry (u16 key | u32 value). Parameters still at their prev value
// are omitted.
func EncodeDelta(dst []byte, prev, cur Settings) []byte {
	for p := Param(0); p < numParams; p++ {
		if prev.v[p] == cur.v[p] {
			continue
		}
		dst = wire.AppendUint16(dst, wireIDByParam[p])
		dst = wire.AppendUint32(dst, cur.v[p])
	}
	return dst
}

// ApplyDelta decodes a SETTINGS frame payload (a sequence of 6-octet
// entries) into s, ignoring unknown keys as RFC 7540 §6.5.1 requires.
func ApplyDelta(s *Settings, payload []byte) error {
	if len(payload)%6 != 0 {
		return newProtocolError(FrameSizeErrorCode)
	}
	for i := 0; i+6 <= len(payload); i += 6 {
		key := uint16(payload[i])<<8 | uint16(payload[i+1])
		val := wire.BytesToUint32(payload[i+2 : i+6])
		if p, ok := paramByWireID[key]; ok {
			s.Set(p, val)
		}
	}
	return nil
}
