package wsengine

// Kind discriminates the variants of Frame.
type Kind int

const (
	KindText Kind = iota + 1
	KindBinary
	KindPing
	KindPong
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindClose:
		return "close"
	default:
		return "unknown"
	}
}

// Frame is the message-level value callers exchange with this engine.
// Only the fields relevant to Kind are meaningful; the Newxxx
// constructors are the only supported way to build one, so the
// combination of fields is always valid for its Kind.
type Frame struct {
	Kind Kind

	// Text holds the UTF-8 payload for KindText.
	Text string

	// Binary holds the payload for KindBinary, and the control payload
	// for KindPing/KindPong.
	Binary []byte

	// CloseCode and CloseReason hold the KindClose payload. HasCloseCode
	// distinguishes Close(nil, nil) from Close(1000, "").
	HasCloseCode bool
	CloseCode    uint16
	CloseReason  string
}

// NewText constructs a text data frame.
func NewText(s string) Frame {
	return Frame{Kind: KindText, Text: s}
}

// NewBinary constructs a binary data frame.
func NewBinary(b []byte) Frame {
	return Frame{Kind: KindBinary, Binary: b}
}

// NewPing constructs a ping control frame. The payload must be at most
// 125 bytes; Encode rejects larger payloads with ErrPayloadTooLarge.
func NewPing(b []byte) Frame {
	return Frame{Kind: KindPing, Binary: b}
}

// NewPong constructs a pong control frame, conventionally echoing a
// ping's payload.
func NewPong(b []byte) Frame {
	return Frame{Kind: KindPong, Binary: b}
}

// NewClose constructs a close frame with an explicit code and reason.
func NewClose(code uint16, reason string) Frame {
	return Frame{Kind: KindClose, HasCloseCode: true, CloseCode: code, CloseReason: reason}
}

// NewCloseEmpty constructs a close frame with no code and no reason,
// which lowers to an empty wire payload.
func NewCloseEmpty() Frame {
	return Frame{Kind: KindClose}
}
