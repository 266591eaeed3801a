// Package logging builds the hclog loggers shared by the lock server, the
// client cache and the command line tools.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

type Options struct {
	Name   string    // root logger name
	Level  string    // trace, debug, info, warn, error
	JSON   bool      // emit JSON lines instead of text
	Output io.Writer // defaults to stderr
}

// New returns a root logger configured from opts. Unknown levels fall back
// to info.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
