package handshake

import (
	"net/http"

	"github.com/watt-toolkit/wsengine"
	"github.com/watt-toolkit/wsengine/extension"
)

// SettingEnableConnectProtocol is HTTP/2 SETTINGS id 0x8, defined by
// RFC 8441 Section 3: a server must advertise it with value 1 before a
// client may attempt extended CONNECT.
const SettingEnableConnectProtocol uint16 = 0x8

// ServerSetting looks up a negotiated HTTP/2 SETTINGS value by id. The
// transport adapter in this repository's transport package implements
// this signature directly.
type ServerSetting func(id uint16) (value uint32, ok bool)

// BuildExtendedConnect builds the pseudo-headers and regular headers for
// an RFC 8441 extended-CONNECT request. It first checks that the server
// has advertised SETTINGS_ENABLE_CONNECT_PROTOCOL=1, failing with
// ErrExtendedConnectDisabled before issuing any request if not.
//
// Pseudo-headers (":scheme", ":path", ":protocol") are returned
// separately from regular headers since net/http and
// golang.org/x/net/http2 each have their own convention for setting
// them on an outgoing request.
func BuildExtendedConnect(scheme, path string, extra http.Header, offered []extension.Factory, serverSetting ServerSetting) (pseudo map[string]string, headers http.Header, ctx *Context, err error) {
	value, ok := serverSetting(SettingEnableConnectProtocol)
	if !ok || value != 1 {
		return nil, nil, nil, wsengine.ErrExtendedConnectDisabled
	}

	headers = extra.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Sec-WebSocket-Version", "13")
	if ext := buildExtensionsHeader(offered); ext != "" {
		headers.Set("Sec-WebSocket-Extensions", ext)
	}

	pseudo = map[string]string{
		":scheme":   scheme,
		":path":     path,
		":protocol": "websocket",
	}

	return pseudo, headers, &Context{protocol: HTTP2, offered: offered}, nil
}
