package logger

import (
	"io"

	"github.com/charmbracelet/log"
)

type config struct {
	writer io.Writer
	level  log.Level
	json   bool
	prefix string
}

// Option configures a Logger created with New.
type Option func(*config)

// WithDebug sets the log level to Debug when true, Info otherwise.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = log.DebugLevel
		} else {
			c.level = log.InfoLevel
		}
	}
}

// WithLevel sets an explicit level.
func WithLevel(level log.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithJSON switches to one JSON object per line.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter overrides the output writer.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writer = w
	}
}

func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}
