// Package extension implements the WebSocket extension middleware
// pipeline: a negotiated extension transforms a raw frame on its way
// out (Encode) and on its way in (Decode), and may claim one of the
// three reserved header bits to signal that it did so.
package extension

import "github.com/watt-toolkit/wsengine/wsframe"

// Extension is a negotiated, stateful pipeline stage. Encode and Decode
// return a replacement Extension value carrying any updated state,
// mirroring the value-threading discipline of the connection state that
// holds a list of these.
type Extension interface {
	// Name is the wire token sent during negotiation, e.g.
	// "permessage-deflate".
	Name() string

	// Params are the negotiated parameters, echoed from the server's
	// handshake response.
	Params() map[string]string

	// Encode transforms an outbound raw frame before it is serialized.
	// It may set reserved bits it owns.
	Encode(f wsframe.RawFrame) (wsframe.RawFrame, Extension, error)

	// Decode transforms an inbound, already-reassembled raw frame. It
	// must clear any reserved bits it claimed.
	Decode(f wsframe.RawFrame) (wsframe.RawFrame, Extension, error)
}

// Pipeline applies a list of extensions in order.
type Pipeline []Extension

// Encode runs every extension's Encode stage in order, returning the
// transformed frame and a pipeline with each extension's updated state.
func (p Pipeline) Encode(f wsframe.RawFrame) (wsframe.RawFrame, Pipeline, error) {
	next := make(Pipeline, len(p))
	for i, ext := range p {
		var err error
		f, next[i], err = ext.Encode(f)
		if err != nil {
			return wsframe.RawFrame{}, p, err
		}
	}
	return f, next, nil
}

// Decode runs every extension's Decode stage in the same forward order
// Encode used — extensions in this pipeline are self-symmetric, per
// their negotiation order from the handshake.
func (p Pipeline) Decode(f wsframe.RawFrame) (wsframe.RawFrame, Pipeline, error) {
	next := make(Pipeline, len(p))
	for i, ext := range p {
		var err error
		f, next[i], err = ext.Decode(f)
		if err != nil {
			return wsframe.RawFrame{}, p, err
		}
	}
	return f, next, nil
}
