// Package logging configures the process-wide slog logger. Runs are batch
// jobs whose output ends up in run logs and CI captures, so the default is
// structured JSON on stderr; "text" is for humans at a terminal.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects handler format and level.
type Options struct {
	// Format is "json" (default) or "text".
	Format string
	// Level is "debug", "info" (default), "warn" or "error".
	Level string
	// Writer overrides the destination; nil means stderr.
	Writer io.Writer
}

// Setup builds a logger per the options and installs it as the slog
// default, so package-level slog calls across the engine all land in one
// place.
func Setup(opt Options) *slog.Logger {
	w := opt.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: parseLevel(opt.Level)}

	var h slog.Handler
	if strings.EqualFold(opt.Format, "text") {
		h = slog.NewTextHandler(w, ho)
	} else {
		h = slog.NewJSONHandler(w, ho)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
