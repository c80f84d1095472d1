// Package transport adapts real HTTP/1 and HTTP/2 clients to the
// contract wsengine's handshake and frame codec expect an external
// transport to provide (see the engine's design notes on external
// interfaces): send a request, stream bytes to it, and receive a
// uniform stream of events regardless of HTTP version.
//
// Neither adapter reimplements HTTP/1 parsing, HTTP/2 framing, HPACK,
// or flow control beyond what driving the underlying library's public
// API requires; the wire protocol itself stays owned by net/http and
// golang.org/x/net/http2 respectively.
package transport

import (
	"context"
	"net/http"
)

// Protocol identifies the HTTP version carrying the WebSocket stream.
type Protocol int

const (
	HTTP1 Protocol = iota
	HTTP2
)

func (p Protocol) String() string {
	if p == HTTP2 {
		return "http2"
	}
	return "http1"
}

// BodyMode tells SendRequest whether the request carries a body the
// caller will stream afterward.
type BodyMode int

const (
	BodyNone BodyMode = iota
	BodyStream
)

// RequestRef identifies an in-flight request/stream to later calls.
type RequestRef struct {
	id uint64
}

// Client is the HTTP client contract the engine's handshake and codec
// consume. It does not provide WebSocket semantics itself: it only
// moves bytes and exposes what the handshake needs to negotiate.
type Client interface {
	SendRequest(ctx context.Context, method, path string, headers http.Header, body BodyMode) (RequestRef, error)
	StreamRequestBody(ctx context.Context, ref RequestRef, data []byte) error
	Protocol() Protocol
	ServerSetting(id uint16) (value uint32, ok bool)
}

// Event is a structured notification from a Client: StatusEvent,
// HeadersEvent, DataEvent, or DoneEvent.
type Event interface{ isEvent() }

// StatusEvent carries the response status line.
type StatusEvent struct {
	Ref  RequestRef
	Code int
}

func (StatusEvent) isEvent() {}

// HeadersEvent carries the response headers.
type HeadersEvent struct {
	Ref    RequestRef
	Header http.Header
}

func (HeadersEvent) isEvent() {}

// DataEvent carries a chunk of the response body — post-handshake, this
// is the byte stream the caller feeds to wsengine.Decode.
type DataEvent struct {
	Ref  RequestRef
	Data []byte
}

func (DataEvent) isEvent() {}

// DoneEvent marks the end of a request/stream.
type DoneEvent struct {
	Ref RequestRef
}

func (DoneEvent) isEvent() {}
