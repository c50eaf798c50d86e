// Package cmdutil provides command line plumbing shared by every uacme
// subcommand: leveled logger construction from the repeatable -v flag and
// a signal-cancellable context used to abort polling loops cleanly.
package cmdutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog.Logger writing human-readable output to
// stderr, whose level is derived from verbosity (the number of times -v
// was passed): 0 maps to warn, 1 to info, 2 to debug, 3+ to trace.
func NewLogger(verbosity int) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbosity >= 3:
		level = zerolog.TraceLevel
	case verbosity == 2:
		level = zerolog.DebugLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// SignalContext returns a context that is cancelled when the process
// receives SIGINT, SIGTERM or SIGHUP, along with a stop function the caller
// should defer to release the underlying signal notification.
func SignalContext() (context.Context, func()) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}
