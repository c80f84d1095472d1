package handshake

import (
	"net/http"

	"github.com/watt-toolkit/wsengine/extension"
)

// BuildUpgradeRequest builds the headers for an RFC 6455 Section 4.1
// HTTP/1.1 upgrade request. Callers are responsible for the request
// line itself (method, path, host) and for sending these headers
// alongside their own.
func BuildUpgradeRequest(extra http.Header, offered []extension.Factory) (http.Header, *Context, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, nil, err
	}

	headers := extra.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Upgrade", "websocket")
	headers.Set("Connection", "Upgrade")
	headers.Set("Sec-WebSocket-Version", "13")
	headers.Set("Sec-WebSocket-Key", nonce)
	if ext := buildExtensionsHeader(offered); ext != "" {
		headers.Set("Sec-WebSocket-Extensions", ext)
	}

	return headers, &Context{protocol: HTTP1, nonce: nonce, offered: offered}, nil
}
