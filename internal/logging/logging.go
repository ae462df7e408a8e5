// Package logging builds the *slog.Logger shared by every component, with
// optional size-rotated file output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Attribute keys used across packages, so that log lines can be filtered
// consistently.
const (
	KeyAgent  = "agent"
	KeyGoal   = "goal"
	KeyPlan   = "plan"
	KeyAction = "action"
	KeyTarget = "target"
	KeyPhase  = "phase"
	KeyCost   = "cost"
)

// Options are the resolved logging settings.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, if set, receives the log instead of the fallback writer.
	File      string
	MaxSizeMB int
	MaxFiles  int
	// Format is text or json. Empty means text.
	Format string
}

// Defaults mirror the config schema defaults.
const (
	DefaultMaxSizeMB = 10
	DefaultMaxFiles  = 5
)

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger from opts. Output goes to a RotatingFileWriter when
// opts.File is set, otherwise to fallback (io.Discard if nil). The caller
// must Close the returned closer.
func New(opts Options, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    = fallback
		closer io.Closer = nopCloser{}
	)
	if out == nil {
		out = io.Discard
	}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = DefaultMaxSizeMB
		}
		maxFiles := opts.MaxFiles
		if maxFiles < 0 {
			maxFiles = DefaultMaxFiles
		}
		w, err := NewRotatingFileWriter(opts.File, maxSize, maxFiles)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		out, closer = w, w
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("invalid log format: %s", opts.Format)
	}
	return slog.New(handler), closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns logger, or Discard() if logger is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
