package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// HTTP1Client drives a single WebSocket stream over an HTTP/1.1
// connection: it performs the upgrade request with *http.Client, then
// re-routes the response body's socket-level reads as DataEvents, the
// "HTTP/1 stream adapter" re-routing behavior the handshake relies on
// once the HTTP client itself considers the request "done" after a 101.
type HTTP1Client struct {
	hc      *http.Client
	baseURL string

	mu   sync.Mutex
	next uint64

	rwc  io.ReadWriteCloser
	ref  RequestRef
	resp *http.Response
}

// NewHTTP1Client wraps an *http.Client for use as a transport.Client
// against baseURL ("http://host:port" or "https://host:port"; ws/wss
// schemes are rewritten by the caller before reaching here). Pass nil
// to use http.DefaultClient.
func NewHTTP1Client(baseURL string, hc *http.Client) *HTTP1Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP1Client{hc: hc, baseURL: baseURL}
}

func (c *HTTP1Client) Protocol() Protocol { return HTTP1 }

// ServerSetting never applies over HTTP/1.1; RFC 8441's
// SETTINGS_ENABLE_CONNECT_PROTOCOL is an HTTP/2-only concept.
func (c *HTTP1Client) ServerSetting(id uint16) (uint32, bool) { return 0, false }

// SendRequest issues the GET request. headers must already carry the
// upgrade handshake headers (handshake.BuildUpgradeRequest produces
// them); body is always BodyNone for a WebSocket handshake.
func (c *HTTP1Client) SendRequest(ctx context.Context, method, path string, headers http.Header, body BodyMode) (RequestRef, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return RequestRef{}, err
	}
	req.Header = headers

	resp, err := c.hc.Do(req)
	if err != nil {
		return RequestRef{}, fmt.Errorf("transport: websocket upgrade request: %w", err)
	}

	rwc, ok := resp.Body.(io.ReadWriteCloser)
	if !ok {
		resp.Body.Close()
		return RequestRef{}, fmt.Errorf("transport: response body is %T, not io.ReadWriteCloser", resp.Body)
	}

	c.mu.Lock()
	c.next++
	ref := RequestRef{id: c.next}
	c.ref = ref
	c.rwc = rwc
	c.resp = resp
	c.mu.Unlock()

	return ref, nil
}

// Response returns the raw handshake response, for callers that need
// the status and headers to pass to handshake.Finalize.
func (c *HTTP1Client) Response() *http.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resp
}

// StreamRequestBody writes encoded frame bytes to the now-upgraded
// socket.
func (c *HTTP1Client) StreamRequestBody(ctx context.Context, ref RequestRef, data []byte) error {
	c.mu.Lock()
	rwc := c.rwc
	c.mu.Unlock()
	if rwc == nil || ref != c.ref {
		return fmt.Errorf("transport: unknown request ref")
	}
	_, err := rwc.Write(data)
	return err
}

// ReadChunk blocks for the next chunk of post-handshake bytes from the
// socket, delivered as a DataEvent (or DoneEvent on EOF).
func (c *HTTP1Client) ReadChunk(buf []byte) (Event, error) {
	c.mu.Lock()
	rwc := c.rwc
	ref := c.ref
	c.mu.Unlock()

	n, err := rwc.Read(buf)
	if n > 0 {
		return DataEvent{Ref: ref, Data: append([]byte(nil), buf[:n]...)}, nil
	}
	if err == io.EOF {
		return DoneEvent{Ref: ref}, nil
	}
	return nil, err
}

// Close closes the underlying socket.
func (c *HTTP1Client) Close() error {
	c.mu.Lock()
	rwc := c.rwc
	c.mu.Unlock()
	if rwc == nil {
		return nil
	}
	return rwc.Close()
}
