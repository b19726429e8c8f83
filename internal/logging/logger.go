// Package logging builds the process logger. There is no package-level
// logger: main constructs one and hands it to every component.
package logging

import (
	"io"
	"os"
	"time"

	clog "github.com/charmbracelet/log"
)

// Options controls where and how verbosely the logger writes.
type Options struct {
	Verbose bool
	Stderr  io.Writer // defaults to os.Stderr
	File    io.Writer // optional second sink, usually a *Roller
}

// New returns a logger writing to stderr and, if set, the file sink.
// Verbose enables debug output and caller reporting.
func New(opts Options) *clog.Logger {
	var out io.Writer = os.Stderr
	if opts.Stderr != nil {
		out = opts.Stderr
	}
	if opts.File != nil {
		out = io.MultiWriter(out, opts.File)
	}

	level := clog.InfoLevel
	if opts.Verbose {
		level = clog.DebugLevel
	}

	return clog.NewWithOptions(out, clog.Options{
		Level:           level,
		Prefix:          "bwrofi",
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		ReportCaller:    opts.Verbose,
	})
}

// Discard returns a logger that drops everything. Components fall back to
// it when constructed without a logger.
func Discard() *clog.Logger {
	return clog.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *clog.Logger) *clog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
