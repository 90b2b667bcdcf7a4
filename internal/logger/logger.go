// Package logger builds the zerolog loggers of the console and the
// development server.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options selects how a process logs.
type Options struct {
	Level string // trace, debug, info, warn, error, fatal or panic; anything else means info
	// Format is "json", "pretty" or "auto". Auto is pretty on a terminal and
	// JSON otherwise.
	Format    string
	Component string
	Caller    bool
}

// Console returns the console's logger. It writes to stderr so command
// output on stdout can be piped, and reports callers only when debugging.
func Console(level, format string) zerolog.Logger {
	lvl := parseLevel(level)
	return New(os.Stderr, Options{
		Level:     level,
		Format:    format,
		Component: "console",
		Caller:    lvl <= zerolog.DebugLevel,
	})
}

// Server returns the development server's logger, writing to stdout.
func Server(level, format string) zerolog.Logger {
	return New(os.Stdout, Options{
		Level:     level,
		Format:    format,
		Component: "devserver",
		Caller:    true,
	})
}

// New builds a logger writing to out and sets the global level.
func New(out io.Writer, opts Options) zerolog.Logger {
	writer := out
	if pretty(out, opts.Format) {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(parseLevel(opts.Level))

	ctx := zerolog.New(writer).With().Timestamp()
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	if opts.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func pretty(out io.Writer, format string) bool {
	switch format {
	case "pretty":
		return true
	case "auto":
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	default:
		return false
	}
}
