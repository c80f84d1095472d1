// Package wsengine implements the client side of the WebSocket protocol
// (RFC 6455) as a pure, process-less codec: it owns no socket, no
// goroutine, and no timer. Callers hold a ConnState value, feed it
// through Encode and Decode alongside the bytes they read from or write
// to a transport of their own choosing, and thread the returned state
// into the next call.
//
// The handshake lives in the handshake subpackage; extension
// negotiation (permessage-deflate) lives in extension. This package is
// the frame-level core the other two build on.
package wsengine
