package extension

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/watt-toolkit/wsengine/wsframe"
)

// DeflateName is the wire token for RFC 7692 permessage-deflate.
const DeflateName = "permessage-deflate"

var deflateTail = []byte{0x00, 0x00, 0xff, 0xff}

// PerMessageDeflate implements RFC 7692 permessage-deflate. It claims
// RSV1: frames it compresses on encode carry RSV1 set, and it inflates
// any inbound data frame with RSV1 set.
//
// Compression context is retained across messages on each direction
// independently, unless the corresponding no_context_takeover parameter
// was negotiated, in which case the writer or reader is recreated after
// every complete message.
type PerMessageDeflate struct {
	params map[string]string

	serverNoContextTakeover bool
	clientNoContextTakeover bool

	writer *flate.Writer
	buf    *bytes.Buffer // the writer's output sink, drained per message
	reader io.ReadCloser
	dict   []byte // last 32 KiB of inflated output, the reader's history
}

// NewPerMessageDeflate builds an extension instance from the negotiated
// parameters the server echoed back during the handshake.
func NewPerMessageDeflate(params map[string]string) *PerMessageDeflate {
	_, serverNCT := params["server_no_context_takeover"]
	_, clientNCT := params["client_no_context_takeover"]
	return &PerMessageDeflate{
		params:                  params,
		serverNoContextTakeover: serverNCT,
		clientNoContextTakeover: clientNCT,
	}
}

func (d *PerMessageDeflate) Name() string              { return DeflateName }
func (d *PerMessageDeflate) Params() map[string]string { return d.params }

// Encode compresses the payload of a data frame, strips the trailing
// 00 00 ff ff sync-flush marker, and sets RSV1. Control frames pass
// through untouched, per RFC 7692 Section 5.1.
func (d *PerMessageDeflate) Encode(f wsframe.RawFrame) (wsframe.RawFrame, Extension, error) {
	if f.Opcode.IsControl() {
		return f, d, nil
	}

	w, buf := d.writer, d.buf
	var err error
	if w == nil {
		buf = new(bytes.Buffer)
		w, err = flate.NewWriter(buf, flate.DefaultCompression)
		if err != nil {
			return wsframe.RawFrame{}, d, err
		}
	}

	if _, err := w.Write(f.Payload); err != nil {
		return wsframe.RawFrame{}, d, err
	}
	if err := w.Flush(); err != nil {
		return wsframe.RawFrame{}, d, err
	}

	out := f
	out.Payload = bytes.TrimSuffix(append([]byte(nil), buf.Bytes()...), deflateTail)
	out.RSV1 = true
	buf.Reset()

	next := *d
	if d.clientNoContextTakeover {
		next.writer = nil
		next.buf = nil
	} else {
		next.writer = w
		next.buf = buf
	}
	return out, &next, nil
}

// Decode inflates a data frame that carries RSV1, after re-appending the
// sync-flush marker the peer's encoder stripped. A frame without RSV1
// set was not compressed and passes through unchanged.
func (d *PerMessageDeflate) Decode(f wsframe.RawFrame) (wsframe.RawFrame, Extension, error) {
	if f.Opcode.IsControl() || !f.RSV1 {
		return f, d, nil
	}

	// An empty final stored block follows the marker so the reader ends
	// the message with io.EOF.
	compressed := append(append([]byte(nil), f.Payload...), deflateTail...)
	compressed = append(compressed, 0x01, 0x00, 0x00, 0xff, 0xff)

	r := d.reader
	if r == nil {
		r = flate.NewReaderDict(bytes.NewReader(compressed), d.dict)
	} else if rr, ok := r.(interface {
		Reset(io.Reader, []byte) error
	}); ok {
		if err := rr.Reset(bytes.NewReader(compressed), d.dict); err != nil {
			return wsframe.RawFrame{}, d, err
		}
	} else {
		r = flate.NewReaderDict(bytes.NewReader(compressed), d.dict)
	}

	inflated, err := io.ReadAll(r)
	if err != nil {
		return wsframe.RawFrame{}, d, err
	}

	out := f
	out.Payload = inflated
	out.RSV1 = false

	next := *d
	if d.serverNoContextTakeover {
		next.reader = nil
		next.dict = nil
	} else {
		next.reader = r
		next.dict = append(append([]byte(nil), d.dict...), inflated...)
		if len(next.dict) > 1<<15 {
			next.dict = next.dict[len(next.dict)-1<<15:]
		}
	}
	return out, &next, nil
}
