package wsengine

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/watt-toolkit/wsengine/wsframe"
)

func mustHexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// serverForm rewrites a client-encoded (masked) frame into the unmasked
// form a server sends, since Decode rejects masked frames.
func serverForm(t *testing.T, encoded []byte) []byte {
	t.Helper()
	hn := 2
	switch encoded[1] & 0x7F {
	case 126:
		hn = 4
	case 127:
		hn = 10
	}
	var key [4]byte
	copy(key[:], encoded[hn:hn+4])
	out := append([]byte(nil), encoded[:hn]...)
	out[1] &^= 0x80
	payload := append([]byte(nil), encoded[hn+4:]...)
	wsframe.ApplyMask(payload, key)
	return append(out, payload...)
}

func TestDecodePingScenario(t *testing.T) {
	state := NewConnState(nil)
	state, results, err := Decode(state, mustHexBytes(t, "890470696e67"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	f := results[0].Frame
	if f.Kind != KindPing || string(f.Binary) != "ping" {
		t.Fatalf("frame = %+v", f)
	}
	if len(state.decodeBuf) != 0 {
		t.Fatalf("decode buffer not drained: % x", state.decodeBuf)
	}
}

func TestFragmentedTextScenario(t *testing.T) {
	state := NewConnState(nil)

	state, results, err := Decode(state, mustHexBytes(t, "010568656c6c6f"))
	if err != nil {
		t.Fatalf("Decode call 1: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no frames yet, got %+v", results)
	}
	if len(state.pending) != 1 {
		t.Fatalf("expected one pending fragment, got %d", len(state.pending))
	}

	state, results, err = Decode(state, mustHexBytes(t, "8006" /* continuation, fin=1, len 6 */ +"20776f726c64"))
	if err != nil {
		t.Fatalf("Decode call 2: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Frame.Kind != KindText || results[0].Frame.Text != "hello world" {
		t.Fatalf("frame = %+v", results[0].Frame)
	}
	if len(state.pending) != 0 {
		t.Fatalf("pending not cleared: %d", len(state.pending))
	}
}

func TestPartialDecodeScenario(t *testing.T) {
	mask := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	masked, err := wsframe.Encode(wsframe.RawFrame{Fin: true, Opcode: wsframe.OpText, Mask: &mask, Payload: []byte("hello world")})
	if err != nil {
		t.Fatalf("Encode fixture: %v", err)
	}
	if len(masked) != 19 {
		t.Fatalf("fixture length = %d, want 19", len(masked))
	}
	full := serverForm(t, masked) // 13 bytes: 2 header + 11 payload

	state := NewConnState(nil)
	state, results, err := Decode(state, full[:9])
	if err != nil {
		t.Fatalf("Decode first 9 bytes: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no frames from partial input, got %+v", results)
	}
	if !bytes.Equal(state.decodeBuf, full[:9]) {
		t.Fatalf("decode buffer = % x, want % x", state.decodeBuf, full[:9])
	}

	state, results, err = Decode(state, full[9:])
	if err != nil {
		t.Fatalf("Decode remainder: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Frame.Text != "hello world" {
		t.Fatalf("frame = %+v", results[0].Frame)
	}
}

func TestCloseScenarios(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Frame
	}{
		{"explicit 1000 empty reason", "880203e8", NewClose(1000, "")},
		{"synthetic default for empty payload", "8800", NewClose(1000, "")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := NewConnState(nil)
			_, results, err := Decode(state, mustHexBytes(t, tc.input))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(results) != 1 || results[0].Err != nil {
				t.Fatalf("results = %+v", results)
			}
			if !reflect.DeepEqual(results[0].Frame, tc.want) {
				t.Fatalf("frame = %+v, want %+v", results[0].Frame, tc.want)
			}
		})
	}
}

func TestRejectMaskedServerFrame(t *testing.T) {
	state := NewConnState(nil)
	_, _, err := Decode(state, mustHexBytes(t, "818b000000000000000000000000000000000000"))
	if err != ErrUnexpectedMask {
		t.Fatalf("err = %v, want ErrUnexpectedMask", err)
	}
}

func TestCodecErrorPreservesFramesDecodedEarlierInTheSameCall(t *testing.T) {
	state := NewConnState(nil)
	ping := mustHexBytes(t, "890470696e67")
	maskedFrame := mustHexBytes(t, "818b000000000000000000000000000000000000")
	_, results, err := Decode(state, append(append([]byte(nil), ping...), maskedFrame...))
	if err != ErrUnexpectedMask {
		t.Fatalf("err = %v, want ErrUnexpectedMask", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v, want the ping decoded before the corrupting frame", results)
	}
	if results[0].Frame.Kind != KindPing || string(results[0].Frame.Binary) != "ping" {
		t.Fatalf("frame = %+v", results[0].Frame)
	}
}

func TestEncodeHelloWorldHeader(t *testing.T) {
	state := NewConnState(nil)
	_, out, err := Encode(state, NewText("hello world"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if out[0] != 0x81 {
		t.Fatalf("byte0 = %x, want 0x81 (fin+text)", out[0])
	}
	if out[1]&0x80 == 0 {
		t.Fatalf("mask bit not set")
	}
	if out[1]&0x7f != 11 {
		t.Fatalf("length field = %d, want 11", out[1]&0x7f)
	}
}

func TestEncodeDecodeRoundTripINV1(t *testing.T) {
	frames := []Frame{
		NewText("hello"),
		NewBinary([]byte{1, 2, 3, 4}),
		NewPing([]byte("ping")),
		NewPong([]byte("pong")),
		NewClose(1000, "bye"),
		NewCloseEmpty(),
	}
	for _, f := range frames {
		encState := NewConnState(nil)
		_, wire, err := Encode(encState, f)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", f, err)
		}
		decState := NewConnState(nil)
		_, results, err := Decode(decState, serverForm(t, wire))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(results) != 1 || results[0].Err != nil {
			t.Fatalf("results = %+v", results)
		}
		got := results[0].Frame
		if f.Kind == KindClose && !f.HasCloseCode {
			// An explicit-empty close lowers to an empty wire payload,
			// which decodes to the synthetic default Close(1000, "").
			if got.Kind != KindClose || got.CloseCode != 1000 || got.CloseReason != "" {
				t.Fatalf("got = %+v", got)
			}
			continue
		}
		if !reflect.DeepEqual(got, f) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
		}
	}
}

func TestUninitiatedContinuationIsFatal(t *testing.T) {
	state := NewConnState(nil)
	_, _, err := Decode(state, mustHexBytes(t, "800568656c6c6f"))
	if err != ErrUninitiatedContinuation {
		t.Fatalf("err = %v, want ErrUninitiatedContinuation", err)
	}
}

func TestOutOfOrderFragmentsIsFatal(t *testing.T) {
	state := NewConnState(nil)
	state, _, err := Decode(state, mustHexBytes(t, "010568656c6c6f"))
	if err != nil {
		t.Fatalf("Decode call 1: %v", err)
	}
	_, _, err = Decode(state, mustHexBytes(t, "020568656c6c6f"))
	if err != ErrOutOfOrderFragments {
		t.Fatalf("err = %v, want ErrOutOfOrderFragments", err)
	}
}

func TestPingInterleavedWithFragmentSequence(t *testing.T) {
	state := NewConnState(nil)
	state, results, err := Decode(state, mustHexBytes(t, "010568656c6c6f"))
	if err != nil || len(results) != 0 {
		t.Fatalf("call 1: results=%+v err=%v", results, err)
	}
	state, results, err = Decode(state, mustHexBytes(t, "890470696e67"))
	if err != nil {
		t.Fatalf("call 2 (ping): %v", err)
	}
	if len(results) != 1 || results[0].Frame.Kind != KindPing {
		t.Fatalf("expected interleaved ping, got %+v", results)
	}
	if len(state.pending) != 1 {
		t.Fatalf("ping must not disturb the pending fragment")
	}
	_, results, err = Decode(state, mustHexBytes(t, "8006" + "20776f726c64"))
	if err != nil {
		t.Fatalf("call 3: %v", err)
	}
	if len(results) != 1 || results[0].Frame.Text != "hello world" {
		t.Fatalf("final frame = %+v", results)
	}
}

func TestInvalidCloseCodeIsInline(t *testing.T) {
	state := NewConnState(nil)
	_, results, err := Decode(state, mustHexBytes(t, "880203ec")) // code 1004, reserved
	if err != nil {
		t.Fatalf("top-level err = %v, want nil (per-frame)", err)
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want one inline error", results)
	}
}
