// Package logging sets up the zerolog logger carried in contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
)

// NewContext returns ctx carrying a console logger on stderr and a cleanup
// function that flushes it. Stdout is left for command output.
func NewContext(ctx context.Context, debug bool) (context.Context, func()) {
	SetDebug(debug)

	wr := diode.NewWriter(os.Stderr, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "logger dropped %d messages\n", missed)
	})

	logger := New(zerolog.ConsoleWriter{
		Out:        wr,
		TimeFormat: time.DateTime,
	})
	log.Logger = logger

	var once sync.Once
	flushMu.Lock()
	flush = func() { once.Do(func() { wr.Close() }) }
	flushMu.Unlock()

	return logger.WithContext(ctx), Flush
}

var (
	flushMu sync.Mutex
	flush   = func() {}
)

// Flush drains the logger installed by NewContext. It is safe to call more
// than once and before NewContext.
func Flush() {
	flushMu.Lock()
	f := flush
	flushMu.Unlock()
	f()
}

// SetDebug switches the global level between debug and info.
func SetDebug(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// New builds a timestamped logger writing to w.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// FromCtx returns the context logger, or a disabled logger if none is set.
func FromCtx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
