package h2engine

// State is one of the twelve top-level connection states.
type State int8

const (
	StateClosed State = iota
	StateH2Init
	StateH2Preface
	StateH2Settings
	StateH2Frame
	StateH1Head
	StateH1Body
	StateH1Chunk
	StateH1ChunkBody
	StateH1ChunkTail
	StateH1Trailers
	StateH1Tail
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateH2Init:
		return "H2_INIT"
	case StateH2Preface:
		return "H2_PREFACE"
	case StateH2Settings:
		return "H2_SETTINGS"
	case StateH2Frame:
		return "H2_FRAME"
	case StateH1Head:
		return "H1_HEAD"
	case StateH1Body:
		return "H1_BODY"
	case StateH1Chunk:
		return "H1_CHUNK"
	case StateH1ChunkBody:
		return "H1_CHUNK_BODY"
	case StateH1ChunkTail:
		return "H1_CHUNK_TAIL"
	case StateH1Trailers:
		return "H1_TRAILERS"
	case StateH1Tail:
		return "H1_TAIL"
	}
	return "?"
}

// step is the state handlers' tri-state return: a handler either
// needs more buffered input, or names the next state. A non-nil error
// from the handler itself is the third arm, returned directly by
// step-producing methods instead of being folded into this struct.
type step struct {
	needMore bool
	next     State
}

func needMore() (step, error)     { return step{needMore: true}, nil }
func gotoState(s State) (step, error) { return step{next: s}, nil }

// drive runs state handlers until one reports NeedMore, or an error
// (including DISCONNECT) ends the loop.
func (c *Connection) drive() error {
	for c.state != StateClosed {
		st, err := c.runState()
		if err != nil {
			return err
		}
		if st.needMore {
			return nil
		}
		c.state = st.next
	}
	return nil
}

func (c *Connection) runState() (step, error) {
	switch c.state {
	case StateH2Init:
		return c.stepH2Init()
	case StateH2Preface:
		return c.stepH2Preface()
	case StateH2Settings:
		return c.stepH2Settings()
	case StateH2Frame:
		return c.stepH2Frame()
	case StateH1Head:
		return c.stepH1Head()
	case StateH1Body:
		return c.stepH1Body()
	case StateH1Chunk:
		return c.stepH1Chunk()
	case StateH1ChunkBody:
		return c.stepH1ChunkBody()
	case StateH1ChunkTail:
		return c.stepH1ChunkTail()
	case StateH1Trailers:
		return c.stepH1Trailers()
	case StateH1Tail:
		return c.stepH1Tail()
	}
	return step{}, ErrAssertion
}

func (c *Connection) stepH2Init() (step, error) {
	if c.client {
		if err := c.writev([][]byte{preface}); err != nil {
			return step{}, err
		}
	}
	payload := EncodeDelta(nil, StandardSettings(), c.local)
	h := FrameHeader{Type: FrameSettings, Stream: 0}
	if err := writeFrame(c.writev, h, payload, c.remote.Get(ParamMaxFrameSize)); err != nil {
		return step{}, err
	}
	return gotoState(StateH2Preface)
}

func (c *Connection) stepH2Preface() (step, error) {
	if c.client {
		return gotoState(StateH2Settings)
	}

	buf := c.in.Bytes()
	n := len(buf)
	if n > len(preface) {
		n = len(preface)
	}
	if string(buf[:n]) != string(preface[:n]) {
		return step{}, newProtocolError(ProtocolErrorCode)
	}
	if len(buf) < len(preface) {
		return needMore()
	}
	c.in.Shift(len(preface))
	return gotoState(StateH2Settings)
}

func (c *Connection) stepH2Settings() (step, error) {
	if c.in.Len() < FrameHeaderSize {
		return needMore()
	}
	b := c.in.Bytes()
	fh := ParseFrameHeader(b[:FrameHeaderSize])
	if fh.Type != FrameSettings || fh.Flags != 0 {
		return step{}, newProtocolError(ProtocolErrorCode)
	}
	if fh.Length > c.local.Get(ParamMaxFrameSize) {
		c.sendGoAway(FrameSizeErrorCode, nil)
		return step{}, newProtocolError(FrameSizeErrorCode)
	}
	total := FrameHeaderSize + int(fh.Length)
	if c.in.Len() < total {
		return needMore()
	}

	c.remote = InitialSettings()
	if err := c.applySettingsPayload(b[FrameHeaderSize:total]); err != nil {
		return step{}, err
	}
	if err := writeFrame(c.writev, FrameHeader{Type: FrameSettings, Flags: FlagAck, Stream: 0}, nil, c.remote.Get(ParamMaxFrameSize)); err != nil {
		return step{}, err
	}
	c.in.Shift(total)
	return gotoState(StateH2Frame)
}
