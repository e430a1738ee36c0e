package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup configures logging for the given level and returns the server
// logger. Infrastructure components log through the returned slog logger;
// the protocol and monitoring layers trace through the zerolog global, so
// both are leveled together here.
func Setup(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	zerolog.SetGlobalLevel(zerologLevel(l))

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch l {
	case slog.LevelDebug:
		return zerolog.DebugLevel
	case slog.LevelWarn:
		return zerolog.WarnLevel
	case slog.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger creates a default logger with info level.
func Logger() *slog.Logger {
	return Setup("info")
}
