package wsengine

import (
	"unicode/utf8"

	"github.com/watt-toolkit/wsengine/wsframe"
)

// closeCodeReserved is the set of codes that are syntactically in range
// but never legal on the wire, per RFC 6455 Section 7.4.1 and the
// registry of codes reserved for other purposes.
var closeCodeReserved = map[uint16]bool{
	1004: true, 1005: true, 1006: true, 1016: true, 1100: true, 2000: true, 2999: true,
}

func isValidCloseCode(code uint16) bool {
	if code < 1000 || code > 4999 {
		return false
	}
	return !closeCodeReserved[code]
}

// lift converts a fully-assembled, extension-decoded raw frame into the
// public Frame a caller sees. Returned errors are either inline-eligible
// (ErrInvalidUTF8, ErrInvalidClosePayload) or fatal (ErrMalformedReserved,
// ErrUnsupportedOpcode).
func lift(raw wsframe.RawFrame) (Frame, error) {
	if raw.RSV1 || raw.RSV2 || raw.RSV3 {
		return Frame{}, ErrMalformedReserved
	}

	switch raw.Opcode {
	case wsframe.OpText:
		if !utf8.Valid(raw.Payload) {
			return Frame{}, ErrInvalidUTF8
		}
		return NewText(string(raw.Payload)), nil

	case wsframe.OpBinary, wsframe.OpContinuation:
		return NewBinary(raw.Payload), nil

	case wsframe.OpPing:
		return NewPing(raw.Payload), nil

	case wsframe.OpPong:
		return NewPong(raw.Payload), nil

	case wsframe.OpClose:
		return liftClose(raw.Payload)

	default:
		return Frame{}, ErrUnsupportedOpcode
	}
}

func liftClose(payload []byte) (Frame, error) {
	switch {
	case len(payload) == 0:
		return NewClose(1000, ""), nil
	case len(payload) == 1:
		return Frame{}, ErrInvalidClosePayload
	default:
		code := uint16(payload[0])<<8 | uint16(payload[1])
		reason := payload[2:]
		if len(reason) > 123 {
			return Frame{}, ErrInvalidClosePayload
		}
		if !utf8.Valid(reason) {
			return Frame{}, ErrInvalidUTF8
		}
		if !isValidCloseCode(code) {
			return Frame{}, ErrInvalidClosePayload
		}
		return NewClose(code, string(reason)), nil
	}
}

// lower converts a caller's Frame into a raw frame ready for the
// extension pipeline and serialization: it assigns a fresh mask and
// always sets fin, since this engine never fragments outbound messages.
func lower(f Frame) (wsframe.RawFrame, error) {
	mask, err := wsframe.NewMask()
	if err != nil {
		return wsframe.RawFrame{}, err
	}

	raw := wsframe.RawFrame{Fin: true, Mask: &mask}

	switch f.Kind {
	case KindText:
		if !utf8.ValidString(f.Text) {
			return wsframe.RawFrame{}, ErrInvalidUTF8
		}
		raw.Opcode = wsframe.OpText
		raw.Payload = []byte(f.Text)

	case KindBinary:
		raw.Opcode = wsframe.OpBinary
		raw.Payload = f.Binary

	case KindPing:
		raw.Opcode = wsframe.OpPing
		raw.Payload = f.Binary

	case KindPong:
		raw.Opcode = wsframe.OpPong
		raw.Payload = f.Binary

	case KindClose:
		raw.Opcode = wsframe.OpClose
		raw.Payload = lowerClosePayload(f)

	default:
		return wsframe.RawFrame{}, ErrUnsupportedOpcode
	}

	return raw, nil
}

func lowerClosePayload(f Frame) []byte {
	if !f.HasCloseCode {
		return nil
	}
	payload := make([]byte, 2+len(f.CloseReason))
	payload[0] = byte(f.CloseCode >> 8)
	payload[1] = byte(f.CloseCode)
	copy(payload[2:], f.CloseReason)
	return payload
}
