// Package ignlog provides a thin structured-logging wrapper around
// log/slog for the ignite authority core, following the same
// text-or-JSON, component-tagged approach as the rest of the padlokk
// tooling.
package ignlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler used for output.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config controls logger construction.
type Config struct {
	Level     slog.Level
	Format    Format
	Output    io.Writer // defaults to os.Stderr when nil
	Component string
}

// Logger wraps *slog.Logger with a fixed component attribute.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	base := slog.New(handler)
	if cfg.Component != "" {
		base = base.With("component", cfg.Component)
	}
	return &Logger{Logger: base}
}

// Discard returns a Logger that drops all output, useful for tests and
// library callers that have not configured logging.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Redact masks a sensitive value (passphrase, private key hex) down to a
// short prefix so accidental inclusion in a log line or error string
// never leaks the full secret.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	trimmed := strings.TrimSpace(s)
	if len(trimmed) <= 4 {
		return "****"
	}
	return trimmed[:4] + strings.Repeat("*", len(trimmed)-4)
}
