// Command wsclient dials a WebSocket endpoint through the engine's
// handshake and transport packages, sends one text frame, and logs
// every decoded frame until the peer closes the stream or the context
// deadline fires. It exists to give the otherwise process-less engine
// a runnable shell with real config and logging, the way timpani's
// cmd/timpani wraps its Temporal worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/watt-toolkit/wsengine"
	"github.com/watt-toolkit/wsengine/extension"
	"github.com/watt-toolkit/wsengine/handshake"
	"github.com/watt-toolkit/wsengine/internal/logger"
	"github.com/watt-toolkit/wsengine/transport"
)

func main() {
	cmd := &cli.Command{
		Name:   "wsclient",
		Usage:  "send one WebSocket text frame and print everything the server sends back",
		Flags:  flags(),
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	path := configFile()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "ws:// or wss:// endpoint to connect to",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSCLIENT_URL"),
				toml.TOML("url", path),
			),
		},
		&cli.StringFlag{
			Name:  "message",
			Usage: "text payload to send after the handshake",
			Value: "hello",
		},
		&cli.BoolFlag{
			Name:  "deflate",
			Usage: "offer permessage-deflate",
		},
		&cli.BoolFlag{
			Name:  "pretty-log",
			Usage: "human-readable console logging, instead of JSON",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "how long to wait for server frames before exiting",
			Value: 5 * time.Second,
		},
	}
}

func configFile() altsrc.StringSourcer {
	return altsrc.StringSourcer(os.Getenv("WSCLIENT_CONFIG"))
}

func run(ctx context.Context, cmd *cli.Command) error {
	zl := logger.New(cmd.Bool("pretty-log"))
	log := logger.NewAdapter(zl)

	raw := cmd.String("url")
	if raw == "" {
		return fmt.Errorf("missing --url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing --url: %w", err)
	}

	var offered []extension.Factory
	if cmd.Bool("deflate") {
		offered = append(offered, extension.NewDeflateFactory())
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	state, client, err := dialAndUpgrade(ctx, u, offered, log)
	if err != nil {
		logger.FatalError(zl, "handshake failed", err)
	}

	outgoing := wsengine.NewText(cmd.String("message"))
	state, wire, err := wsengine.Encode(state, outgoing)
	if err != nil {
		logger.FatalError(zl, "encoding outgoing frame", err)
	}
	if err := client.StreamRequestBody(ctx, transport.RequestRef{}, wire); err != nil {
		logger.FatalError(zl, "sending frame", err)
	}
	log.Infof("sent text frame: %q", cmd.String("message"))

	buf := make([]byte, 4096)
	for {
		ev, err := client.ReadChunk(buf)
		if err != nil {
			log.Errorf("read failed: %v", err)
			return err
		}
		data, ok := ev.(transport.DataEvent)
		if !ok {
			return nil
		}

		var results []wsengine.Result
		state, results, err = wsengine.Decode(state, data.Data)
		if err != nil {
			log.Errorf("decode failed: %v", err)
			return err
		}
		for _, r := range results {
			logResult(log, r)
			if r.Frame.Kind == wsengine.KindClose {
				return nil
			}
		}
	}
}

func logResult(log logger.Adapter, r wsengine.Result) {
	if r.Err != nil {
		log.Errorf("frame error: %v", r.Err)
		return
	}
	switch r.Frame.Kind {
	case wsengine.KindText:
		log.Infof("received text: %q", r.Frame.Text)
	case wsengine.KindBinary:
		log.Infof("received binary: %d bytes", len(r.Frame.Binary))
	case wsengine.KindPing:
		log.Debugf("received ping: %d bytes", len(r.Frame.Binary))
	case wsengine.KindPong:
		log.Debugf("received pong: %d bytes", len(r.Frame.Binary))
	case wsengine.KindClose:
		log.Infof("received close: code=%d reason=%q", r.Frame.CloseCode, r.Frame.CloseReason)
	}
}

// dialAndUpgrade performs the HTTP/1.1 upgrade handshake; wss:// and
// ws:// are both routed through the HTTP/1 transport adapter, since
// the demo does not attempt HTTP/2 ALPN negotiation.
func dialAndUpgrade(ctx context.Context, u *url.URL, offered []extension.Factory, log logger.Adapter) (wsengine.ConnState, *transport.HTTP1Client, error) {
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	base := scheme + "://" + u.Host

	headers, hctx, err := handshake.BuildUpgradeRequest(http.Header{}, offered)
	if err != nil {
		return wsengine.ConnState{}, nil, err
	}

	client := transport.NewHTTP1Client(base, nil)
	path := u.Path
	if path == "" {
		path = "/"
	}
	if _, err := client.SendRequest(ctx, http.MethodGet, path, headers, transport.BodyNone); err != nil {
		return wsengine.ConnState{}, nil, err
	}

	resp := client.Response()
	state, err := handshake.Finalize(hctx, resp.StatusCode, resp.Header)
	if err != nil {
		return wsengine.ConnState{}, nil, err
	}
	log.Infof("upgraded: status=%d extensions=%s", resp.StatusCode, strings.Join(extensionNames(state), ","))
	return state, client, nil
}

func extensionNames(state wsengine.ConnState) []string {
	names := []string{}
	for _, e := range state.Extensions() {
		names = append(names, e.Name())
	}
	return names
}
