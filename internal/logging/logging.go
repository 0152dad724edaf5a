// Package logging builds the charmbracelet/log logger the app shares.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds the logger settings coming from config.
type Options struct {
	Level     string // debug | info | warn | error
	Format    string // text | json | logfmt
	Prefix    string
	Timestamp bool
}

// ParseLevel maps a config string to a log level. Unknown values are info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter maps a config string to a formatter. Unknown values are text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.Timestamp,
		Prefix:          opts.Prefix,
	})
}

// File is a logger appending to a file, for when the TUI owns the terminal.
type File struct {
	*log.Logger
	f *os.File
}

// OpenFile opens (or creates) path for appending and logs to it with timestamps.
func OpenFile(path string, opts Options) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	opts.Timestamp = true
	return &File{Logger: New(f, opts), f: f}, nil
}

// Close closes the log file.
func (l *File) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}

// Discard is a logger that drops everything.
func Discard() *log.Logger { return log.New(io.Discard) }
