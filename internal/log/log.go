// Package log builds the slog handler used by the fwbump CLI.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	JSONFormat = "json"
	TextFormat = "text"
)

// ErrUnknownFormat is returned for a log format other than text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// CreateHandler creates a [slog.Handler] writing to w.
func CreateHandler(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: GetLevel(logLevel)}

	switch strings.ToLower(logFormat) {
	case JSONFormat:
		return slog.NewJSONHandler(w, opts), nil
	case TextFormat, "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, logFormat)
	}
}

// GetLevel parses a level name. Unknown names map to warn, which keeps
// build logs quiet.
func GetLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug", "trace":
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
