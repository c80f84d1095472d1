package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"
)

// HTTP2Client drives a single extended-CONNECT WebSocket stream (RFC
// 8441) over an already-established HTTP/2 connection. It speaks
// http2.Framer and hpack.Encoder directly rather than net/http's
// RoundTripper: the high-level Transport/ClientConn API has no way to
// set the ":protocol" pseudo-header an extended CONNECT request needs,
// so this adapter drives the frame layer itself while still leaving
// framing and HPACK compression to the library. It does no flow-control
// accounting: it sends no WINDOW_UPDATE frames and skips inbound ones.
type HTTP2Client struct {
	authority string

	mu       sync.Mutex
	framer   *http2.Framer
	settings map[http2.SettingID]uint32
	streamID uint32
}

// NewHTTP2Client takes an already-connected net.Conn-like pair (the
// caller owns TLS/h2c negotiation and ALPN) and completes the HTTP/2
// connection preface: send the client preface and an initial SETTINGS
// frame, then read and acknowledge the server's SETTINGS frame.
func NewHTTP2Client(rw readWriter, authority string) (*HTTP2Client, error) {
	if _, err := rw.Write([]byte(http2.ClientPreface)); err != nil {
		return nil, fmt.Errorf("transport: writing client preface: %w", err)
	}

	framer := http2.NewFramer(rw, rw)
	if err := framer.WriteSettings(); err != nil {
		return nil, fmt.Errorf("transport: writing initial SETTINGS: %w", err)
	}

	frame, err := framer.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("transport: reading server SETTINGS: %w", err)
	}
	sf, ok := frame.(*http2.SettingsFrame)
	if !ok {
		return nil, fmt.Errorf("transport: expected SETTINGS frame, got %T", frame)
	}

	settings := map[http2.SettingID]uint32{}
	_ = sf.ForeachSetting(func(s http2.Setting) error {
		settings[s.ID] = s.Val
		return nil
	})
	if err := framer.WriteSettingsAck(); err != nil {
		return nil, fmt.Errorf("transport: acking server SETTINGS: %w", err)
	}

	return &HTTP2Client{authority: authority, framer: framer, settings: settings}, nil
}

// readWriter is the minimal capability NewHTTP2Client needs from the
// caller's already-connected socket.
type readWriter interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
}

func (c *HTTP2Client) Protocol() Protocol { return HTTP2 }

func (c *HTTP2Client) ServerSetting(id uint16) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.settings[http2.SettingID(id)]
	return v, ok
}

// SendRequest issues an extended-CONNECT request: method is normally
// http.MethodConnect and path is used as the ":path" pseudo-header.
// Extended CONNECT carries no request body, so body is ignored beyond
// whether the HEADERS frame ends the stream.
func (c *HTTP2Client) SendRequest(ctx context.Context, method, path string, headers http.Header, body BodyMode) (RequestRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.streamID += 2
	sid := c.streamID

	var block bytes.Buffer
	enc := hpack.NewEncoder(&block)
	writeField := func(name, value string) error {
		return enc.WriteField(hpack.HeaderField{Name: name, Value: value})
	}

	if err := writeField(":method", method); err != nil {
		return RequestRef{}, err
	}
	if err := writeField(":protocol", "websocket"); err != nil {
		return RequestRef{}, err
	}
	if err := writeField(":scheme", "https"); err != nil {
		return RequestRef{}, err
	}
	if err := writeField(":path", path); err != nil {
		return RequestRef{}, err
	}
	if err := writeField(":authority", c.authority); err != nil {
		return RequestRef{}, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			if err := writeField(strings.ToLower(k), v); err != nil {
				return RequestRef{}, err
			}
		}
	}

	err := c.framer.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      sid,
		BlockFragment: block.Bytes(),
		EndStream:     body == BodyNone,
		EndHeaders:    true,
	})
	if err != nil {
		return RequestRef{}, err
	}
	return RequestRef{id: uint64(sid)}, nil
}

// StreamRequestBody writes encoded frame bytes as HTTP/2 DATA frames on
// the extended-CONNECT stream.
func (c *HTTP2Client) StreamRequestBody(ctx context.Context, ref RequestRef, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framer.WriteData(uint32(ref.id), false, data)
}

// ReadEvent blocks for the next frame on the connection and translates
// it to a StatusEvent, HeadersEvent, DataEvent, or DoneEvent.
func (c *HTTP2Client) ReadEvent() (Event, error) {
	frame, err := c.framer.ReadFrame()
	if err != nil {
		return nil, err
	}

	switch fr := frame.(type) {
	case *http2.HeadersFrame:
		ref := RequestRef{id: uint64(fr.StreamID)}
		dec := hpack.NewDecoder(4096, nil)
		fields, err := dec.DecodeFull(fr.HeaderBlockFragment())
		if err != nil {
			return nil, fmt.Errorf("transport: decoding HEADERS: %w", err)
		}
		status := 0
		header := http.Header{}
		for _, f := range fields {
			if f.Name == ":status" {
				fmt.Sscanf(f.Value, "%d", &status)
				continue
			}
			header.Add(f.Name, f.Value)
		}
		return statusOrHeaders(ref, status, header), nil

	case *http2.DataFrame:
		ref := RequestRef{id: uint64(fr.StreamID)}
		data := append([]byte(nil), fr.Data()...)
		return DataEvent{Ref: ref, Data: data}, nil

	case *http2.RSTStreamFrame:
		return DoneEvent{Ref: RequestRef{id: uint64(fr.StreamID)}}, nil

	default:
		return c.ReadEvent()
	}
}

// statusOrHeaders prefers surfacing the status line as its own event;
// callers that also need the headers can type-switch on both, since
// extended-CONNECT responses carry no other pseudo-headers worth
// splitting out.
func statusOrHeaders(ref RequestRef, status int, header http.Header) Event {
	if status != 0 {
		return StatusEvent{Ref: ref, Code: status}
	}
	return HeadersEvent{Ref: ref, Header: header}
}
