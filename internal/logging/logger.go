package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the level, format and destination of the process logger.
type Config struct {
	Level  string
	Format string
	Writer io.Writer
}

// New creates a structured logger. Format "text" selects the text handler; anything
// else produces JSON.
func New(cfg Config) *slog.Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	options := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), AddSource: true}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		return slog.New(slog.NewTextHandler(writer, options))
	}
	return slog.New(slog.NewJSONHandler(writer, options))
}

// ParseLevel maps a level name onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
