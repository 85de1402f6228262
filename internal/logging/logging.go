// Package logging builds the structured loggers used across hmm.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every log line.
const Prefix = "hmm"

// Options configures a logger.
type Options struct {
	Verbose bool
	Quiet   bool
	Writer  io.Writer
}

// New creates a logger writing to stderr (or opts.Writer). Verbose enables
// debug output; quiet restricts output to errors.
func New(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix: Prefix,
	})
	logger.SetLevel(Level(opts.Verbose, opts.Quiet))
	return logger
}

// Level maps the verbosity flags to a log level. Quiet wins over verbose.
func Level(verbose, quiet bool) log.Level {
	switch {
	case quiet:
		return log.ErrorLevel
	case verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// Discard returns a logger that writes nowhere, for tests and library use.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
