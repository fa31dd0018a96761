package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects where and how verbosely the process logs.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// File, when set, sends output to a rotating file instead of stdout.
	File string
}

// New builds the process logger: JSON records, sensitive attributes masked.
// The returned closer releases the log file, if any.
func New(opts Options) (Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)

	if opts.File != "" {
		w, err := NewRotatingWriter(RotationConfig{File: opts.File})
		if err != nil {
			return nil, nil, err
		}
		out, closer = w, w
	}

	return NewWithWriter(out, ParseLevel(opts.Level)), closer, nil
}

// NewWithWriter builds a redacting JSON logger over w.
func NewWithWriter(w io.Writer, level slog.Level) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(NewRedactingHandler(h)))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
