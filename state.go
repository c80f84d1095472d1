package wsengine

import (
	"github.com/watt-toolkit/wsengine/extension"
	"github.com/watt-toolkit/wsengine/wsframe"
)

// ConnState is the opaque, single-owner connection state threaded
// through every Encode and Decode call. It is a value type: callers
// must discard the state a given call was built from and continue with
// the one that call returns.
type ConnState struct {
	extensions extension.Pipeline
	pending    []wsframe.RawFrame
	decodeBuf  []byte
}

// NewConnState seeds a connection state with the extensions the
// handshake accepted. Pending fragments and the decode buffer start
// empty.
func NewConnState(accepted extension.Pipeline) ConnState {
	return ConnState{extensions: accepted}
}

// Extensions reports the negotiated extension pipeline, in encode
// order. Callers use this to log or inspect what a handshake accepted;
// it is not consulted by Encode or Decode through this accessor.
func (s ConnState) Extensions() extension.Pipeline {
	return s.extensions
}
