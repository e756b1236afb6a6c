package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a Logger writing to w. Format "console" selects zerolog's
// human-readable writer, anything else JSON through slog.
func New(format string, level string, w io.Writer) Logger {
	if strings.EqualFold(format, "console") {
		zl := zerolog.New(zerolog.ConsoleWriter{Out: w}).
			Level(zerologLevel(level)).
			With().Timestamp().Logger()
		return NewZerologLogger(zl)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return NewSlogLogger(slog.New(h))
}

func slogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func zerologLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}
