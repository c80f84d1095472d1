package extension

// Factory describes an extension a client can offer during the
// handshake and instantiate once the server has accepted it.
type Factory interface {
	Name() string
	Offer() map[string]string
	Accept(serverParams map[string]string) (Extension, error)
}

// DeflateOption configures a DeflateFactory.
type DeflateOption func(*DeflateFactory)

// WithClientNoContextTakeover offers client_no_context_takeover,
// instructing the client's own compressor to reset after every message.
func WithClientNoContextTakeover() DeflateOption {
	return func(f *DeflateFactory) { f.clientNoContextTakeover = true }
}

// WithServerNoContextTakeover requests server_no_context_takeover.
func WithServerNoContextTakeover() DeflateOption {
	return func(f *DeflateFactory) { f.serverNoContextTakeover = true }
}

// DeflateFactory offers permessage-deflate during the handshake and
// builds a PerMessageDeflate once the server has echoed it.
type DeflateFactory struct {
	clientNoContextTakeover bool
	serverNoContextTakeover bool
}

// NewDeflateFactory builds a factory offering permessage-deflate with
// context takeover retained on both directions unless overridden.
func NewDeflateFactory(opts ...DeflateOption) *DeflateFactory {
	f := &DeflateFactory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *DeflateFactory) Name() string { return DeflateName }

func (f *DeflateFactory) Offer() map[string]string {
	params := map[string]string{}
	if f.clientNoContextTakeover {
		params["client_no_context_takeover"] = ""
	}
	if f.serverNoContextTakeover {
		params["server_no_context_takeover"] = ""
	}
	return params
}

func (f *DeflateFactory) Accept(serverParams map[string]string) (Extension, error) {
	return NewPerMessageDeflate(serverParams), nil
}
