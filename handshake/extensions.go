package handshake

import (
	"strings"

	"github.com/watt-toolkit/wsengine"
	"github.com/watt-toolkit/wsengine/extension"
)

// buildExtensionsHeader renders the offered extensions as a single
// comma-separated Sec-WebSocket-Extensions value: each extension is its
// name followed by "; key=value" pairs, with bare parameters (no value)
// rendered as a bare key token.
func buildExtensionsHeader(offered []extension.Factory) string {
	if len(offered) == 0 {
		return ""
	}
	var offers []string
	for _, f := range offered {
		offers = append(offers, renderOffer(f.Name(), f.Offer()))
	}
	return strings.Join(offers, ", ")
}

func renderOffer(name string, params map[string]string) string {
	parts := []string{name}
	for k, v := range params {
		if v == "" {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, "; ")
}

// negotiateExtensions parses the server's Sec-WebSocket-Extensions
// response header and instantiates every offered extension the server
// echoed back, in the order the server listed them. An extension the
// server accepted that the client never offered is a hard error.
func negotiateExtensions(offered []extension.Factory, header string) (extension.Pipeline, error) {
	if header == "" {
		return nil, nil
	}

	byName := make(map[string]extension.Factory, len(offered))
	for _, f := range offered {
		byName[f.Name()] = f
	}

	var pipeline extension.Pipeline
	for _, entry := range strings.Split(header, ",") {
		name, params := parseExtensionEntry(entry)
		if name == "" {
			continue
		}
		factory, ok := byName[name]
		if !ok {
			return nil, wsengine.ErrExtensionsMismatch
		}
		ext, err := factory.Accept(params)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, ext)
	}
	return pipeline, nil
}

// parseExtensionEntry parses one "name; key=value; bareflag" entry.
func parseExtensionEntry(entry string) (name string, params map[string]string) {
	tokens := strings.Split(entry, ";")
	name = strings.TrimSpace(tokens[0])
	if name == "" {
		return "", nil
	}
	params = map[string]string{}
	for _, tok := range tokens[1:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if i := strings.IndexByte(tok, '='); i >= 0 {
			key := strings.TrimSpace(tok[:i])
			val := strings.Trim(strings.TrimSpace(tok[i+1:]), `"`)
			params[key] = val
		} else {
			params[tok] = ""
		}
	}
	return name, params
}
