package wsengine

import (
	"github.com/watt-toolkit/wsengine/extension"
	"github.com/watt-toolkit/wsengine/wsframe"
)

// Encode lowers a Frame to a raw frame, runs it through the accepted
// extension pipeline, and serializes it to bytes. On any error the
// returned state is the caller's original, unmodified state: the frame
// is rejected and the connection may continue.
func Encode(state ConnState, f Frame) (ConnState, []byte, error) {
	raw, err := lower(f)
	if err != nil {
		return state, nil, err
	}

	raw, nextExt, err := state.extensions.Encode(raw)
	if err != nil {
		return state, nil, err
	}

	out, err := wsframe.Encode(raw)
	if err != nil {
		return state, nil, translateCodecError(err)
	}

	next := state
	next.extensions = nextExt
	return next, out, nil
}

// Decode appends buf to the connection's buffered tail, parses as many
// complete frames as it can, reassembles fragment sequences, runs each
// assembled data frame through the extension pipeline, and lifts the
// result to the public Frame type.
//
// A non-nil top-level error means the byte stream itself is no longer
// trustworthy (malformed length, unexpected mask, unsupported opcode, an
// unclaimed reserved bit, or a fragment-sequencing violation); the
// caller should close the connection, conventionally with close code
// 1002. Per-frame validation failures (invalid UTF-8, an invalid close
// payload) do not abort the call: they appear as a Result with a non-nil
// Err alongside any frames decoded before and after them.
func Decode(state ConnState, buf []byte) (ConnState, []Result, error) {
	combined := append(append([]byte(nil), state.decodeBuf...), buf...)

	rawFrames, rest, codecErr := wsframe.Decode(combined)

	results, pending, extensions, err := assembleAndLift(state.pending, state.extensions, rawFrames)
	if err != nil {
		return state, results, err
	}
	if codecErr != nil {
		return state, results, translateCodecError(codecErr)
	}

	next := ConnState{
		extensions: extensions,
		pending:    pending,
		decodeBuf:  append([]byte(nil), rest...),
	}
	return next, results, nil
}

// assembleAndLift runs each raw frame through fragment assembly, the
// extension pipeline, and lift, in order. It returns as soon as a fatal
// error occurs, along with every Result produced before that point.
func assembleAndLift(pending []wsframe.RawFrame, extensions extension.Pipeline, rawFrames []wsframe.RawFrame) ([]Result, []wsframe.RawFrame, extension.Pipeline, error) {
	results := make([]Result, 0, len(rawFrames))

	for _, raw := range rawFrames {
		emitted, nextPending, aerr := assembleOne(pending, raw)
		if aerr != nil {
			return results, pending, extensions, aerr
		}
		pending = nextPending
		if emitted == nil {
			continue
		}

		decoded := *emitted
		if !decoded.Opcode.IsControl() {
			var derr error
			decoded, extensions, derr = extensions.Decode(decoded)
			if derr != nil {
				return results, pending, extensions, derr
			}
		}

		frame, lerr := lift(decoded)
		if lerr != nil {
			if isFatalDecodeError(lerr) {
				return results, pending, extensions, lerr
			}
			results = append(results, Result{Err: &DecodeError{Err: lerr}})
			continue
		}
		results = append(results, Result{Frame: frame})
	}

	return results, pending, extensions, nil
}

func translateCodecError(err error) error {
	switch err {
	case wsframe.ErrMalformedLength:
		return ErrMalformedPayloadLength
	case wsframe.ErrUnexpectedMask:
		return ErrUnexpectedMask
	case wsframe.ErrUnsupportedOpcode:
		return ErrUnsupportedOpcode
	case wsframe.ErrPayloadTooLarge:
		return ErrPayloadTooLarge
	default:
		return err
	}
}

// isFatalDecodeError reports whether a lift() error corrupts the
// logical frame stream (and must abort decoding) rather than being
// scoped to the one offending frame.
func isFatalDecodeError(err error) bool {
	return err == ErrMalformedReserved || err == ErrUnsupportedOpcode
}
