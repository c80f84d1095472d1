// Package logger wraps zerolog for the CLI demo, the way timpani wraps its own logging backend behind a
// small adapter rather than calling the library directly everywhere.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the demo's root logger. pretty switches from JSON (the
// default, suited to log aggregation) to zerolog's human-readable
// console writer.
func New(pretty bool) zerolog.Logger {
	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Adapter implements the small logging surface the CLI demo's call
// sites need without importing zerolog directly: Debugf
// for frame-level tracing, Errorf for recoverable per-frame failures.
type Adapter struct {
	zl zerolog.Logger
}

func NewAdapter(zl zerolog.Logger) Adapter {
	return Adapter{zl: zl}
}

func (a Adapter) Debugf(format string, args ...any) {
	a.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

func (a Adapter) Infof(format string, args ...any) {
	a.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (a Adapter) Errorf(format string, args ...any) {
	a.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// FatalError logs at error level with the error attached, then exits.
// Reserved for the CLI's top-level command failures, mirroring
// timpani's logger.FatalError.
func FatalError(zl zerolog.Logger, msg string, err error) {
	zl.Error().Err(err).Msg(msg)
	os.Exit(1)
}
