package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a zerolog.Logger configured for the given format and level.
// format: "json" (default) or "text" (human-readable console output).
// level: any zerolog level name; unknown or empty values fall back to info.
func Setup(format, level string) zerolog.Logger {
	return New(os.Stderr, format, level)
}

// New is Setup with an explicit writer.
func New(w io.Writer, format, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "text" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
