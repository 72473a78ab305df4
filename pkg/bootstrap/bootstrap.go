// Package bootstrap builds the process-wide logger shared by both binaries.
package bootstrap

import (
	"io"
	"log/slog"
	"os"

	"github.com/abgdnv/wallacore/pkg/logger"
)

// NewLogger returns a JSON logger on stdout. Unknown levels fall back to info.
// Debug level also records the source position.
func NewLogger(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := toLevel(level)
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: lvl <= slog.LevelDebug,
		Level:     lvl,
	})
	return slog.New(logger.NewContextHandler(jsonHandler))
}

func toLevel(level string) slog.Level {
	var lvl slog.Level
	if level == "" || lvl.UnmarshalText([]byte(level)) != nil {
		return slog.LevelInfo
	}
	return lvl
}
