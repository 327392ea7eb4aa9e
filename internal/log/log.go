// Package log carries a logr.Logger through context.Context and builds the
// stdr-backed logger used by the command line tools.
package log

import (
	"context"
	"io"
	stdlog "log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// New returns a stdr logger writing to w. verbosity enables V(n) lines for
// n <= verbosity.
func New(w io.Writer, name string, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(stdlog.New(w, "", stdlog.LstdFlags), stdr.Options{LogCaller: stdr.None}).WithName(name)
}
