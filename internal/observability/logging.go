// Package observability builds tsout's structured logger.
//
// tsout's own stdout and stderr belong to the wrapped child's output, so
// the logger never writes there: records go to a configured file, or
// nowhere at all.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the configuration for the logger.
type Config struct {
	Level     string
	Format    string
	LogFile   string
	SessionID string
	Version   string
}

// NewLogger creates a structured logger from the given configuration. With
// no log file configured it returns a discard logger, so callers can log
// unconditionally. The returned cleanup closes the file sink.
func NewLogger(cfg *Config) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(cfg.LogFile) == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}

	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		handler = slog.NewJSONHandler(logFile, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(logFile, handlerOpts)
	default:
		_ = logFile.Close()

		return nil, nil, fmt.Errorf("invalid log format: %q (allowed: json, text)", cfg.Format)
	}

	logger := slog.New(handler).With(
		slog.String("session.id", cfg.SessionID),
		slog.String("cli.version", cfg.Version),
	)

	return logger, logFile.Close, nil
}

func openLogFile(path string) (*os.File, error) {
	cleanPath := strings.TrimSpace(path)

	if mkErr := os.MkdirAll(filepath.Dir(cleanPath), 0o700); mkErr != nil {
		return nil, fmt.Errorf("create log file directory: %w", mkErr)
	}

	file, err := os.OpenFile(filepath.Clean(cleanPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q (allowed: error, warn, info, debug)", level)
	}
}
