package wsengine

import "github.com/watt-toolkit/wsengine/wsframe"

// assembleOne folds one decoded raw frame into the pending-fragment
// state machine. It returns the raw frame of a now-complete message
// ready for the extension pipeline and lift (nil if nothing completed
// yet), the updated pending list, and an error for any of the two
// fragment-sequencing violations.
func assembleOne(pending []wsframe.RawFrame, f wsframe.RawFrame) (emit *wsframe.RawFrame, next []wsframe.RawFrame, err error) {
	if f.Opcode.IsControl() {
		return &f, pending, nil
	}

	switch {
	case f.Opcode == wsframe.OpContinuation:
		if len(pending) == 0 {
			return nil, pending, ErrUninitiatedContinuation
		}
		if !f.Fin {
			return nil, append(pending, f), nil
		}
		complete := concatenate(pending, f)
		return &complete, nil, nil

	case f.Fin:
		if len(pending) != 0 {
			return nil, pending, ErrOutOfOrderFragments
		}
		return &f, pending, nil

	default: // new data frame, fin=false: opens a fragment sequence
		if len(pending) != 0 {
			return nil, pending, ErrOutOfOrderFragments
		}
		return nil, append(pending, f), nil
	}
}

// concatenate merges a completed fragment sequence into a single raw
// frame carrying the first fragment's opcode and reserved bits (so an
// extension that compressed the whole sequence as one DEFLATE stream
// sees RSV1 on the frame it must inflate) and the concatenation of every
// fragment's payload in order.
func concatenate(pending []wsframe.RawFrame, last wsframe.RawFrame) wsframe.RawFrame {
	first := pending[0]

	size := 0
	for _, p := range pending {
		size += len(p.Payload)
	}
	size += len(last.Payload)

	payload := make([]byte, 0, size)
	for _, p := range pending {
		payload = append(payload, p.Payload...)
	}
	payload = append(payload, last.Payload...)

	return wsframe.RawFrame{
		Fin:     true,
		RSV1:    first.RSV1,
		RSV2:    first.RSV2,
		RSV3:    first.RSV3,
		Opcode:  first.Opcode,
		Payload: payload,
	}
}
