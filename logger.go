package mlsclient

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LogConfig configures NewLogger
type LogConfig struct {
	// Writer is where logs go. Defaults to os.Stdout.
	Writer io.Writer
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is text, json or color. Defaults to text.
	Format string
	// AddSource adds file and line to each record.
	AddSource bool
}

// NewLogger builds the slog logger used by LoadConfig.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     level,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	case "color":
		handler = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      level,
			AddSource:  cfg.AddSource,
			TimeFormat: time.DateTime,
		})
	default:
		handler = slog.NewTextHandler(cfg.Writer, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
