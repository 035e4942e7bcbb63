// Package logger builds the structured logger shared by the relay and its HTTP layer.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a charmbracelet logger configured by opts. Defaults to
// human-readable text on stderr at info level.
func New(opts ...Option) *log.Logger {
	c := &config{
		writer: os.Stderr,
		level:  log.InfoLevel,
	}
	for _, opt := range opts {
		opt(c)
	}

	formatter := log.TextFormatter
	if c.json {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(c.writer, log.Options{
		Level:           c.level,
		Prefix:          c.prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
}

// Nop discards everything. Used by tests.
func Nop() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel maps a LOG_LEVEL value to a level, falling back to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
