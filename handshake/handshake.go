// Package handshake builds the client side of a WebSocket opening
// handshake — both the RFC 6455 HTTP/1.1 upgrade and the RFC 8441
// HTTP/2 extended-CONNECT variant — and turns the server's response into
// a wsengine.ConnState.
package handshake

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"net/http"

	"github.com/watt-toolkit/wsengine"
	"github.com/watt-toolkit/wsengine/extension"
)

// acceptGUID is the magic constant RFC 6455 Section 1.3 mixes into the
// client's nonce to compute the expected Sec-WebSocket-Accept value.
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Protocol identifies which HTTP version carries the handshake.
type Protocol int

const (
	HTTP1 Protocol = iota
	HTTP2
)

// Context is the opaque value BuildUpgradeRequest and
// BuildExtendedConnect return and Finalize consumes: it
// remembers what was offered so the response can be validated against
// it.
type Context struct {
	protocol Protocol
	nonce    string // empty for HTTP2, which sends no nonce
	offered  []extension.Factory
}

// ComputeAcceptKey computes the Sec-WebSocket-Accept value RFC 6455
// Section 1.3 defines: base64(sha1(key + GUID)).
func ComputeAcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(acceptGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// newNonce draws the 16 random bytes RFC 6455 Section 4.1 requires for
// Sec-WebSocket-Key, base64-encoded.
func newNonce() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b[:]), nil
}

// Finalize validates the server's handshake response against the
// context BuildUpgradeRequest or BuildExtendedConnect produced, negotiates extensions, and returns the
// resulting connection state.
func Finalize(ctx *Context, status int, respHeaders http.Header) (wsengine.ConnState, error) {
	switch ctx.protocol {
	case HTTP1:
		if status != http.StatusSwitchingProtocols {
			return wsengine.ConnState{}, wsengine.ErrConnectionNotUpgraded
		}
		accept := respHeaders.Get("Sec-WebSocket-Accept")
		if accept != ComputeAcceptKey(ctx.nonce) {
			return wsengine.ConnState{}, wsengine.ErrInvalidNonce
		}
	case HTTP2:
		if status < 200 || status > 299 {
			return wsengine.ConnState{}, wsengine.ErrConnectionNotUpgraded
		}
	}

	accepted, err := negotiateExtensions(ctx.offered, respHeaders.Get("Sec-WebSocket-Extensions"))
	if err != nil {
		return wsengine.ConnState{}, err
	}
	return wsengine.NewConnState(accepted), nil
}
