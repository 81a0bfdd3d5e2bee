package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

type Config struct {
	Service string
	Version string
	Env     string // e.g. "dev", "prod"
	Level   string // e.g. "debug", "info", "warn", "error"
	Format  string // e.g. "json", "text"
	File    string // optional; when set, logs are also written to a daily rotated file
}

const (
	fileRotationTime = 24 * time.Hour
	fileMaxAge       = 7 * 24 * time.Hour
)

// New returns a configured slog.Logger instance and installs it as the
// default logger.
func New(cfg Config) *slog.Logger {
	var handler slog.Handler

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		AddSource: cfg.Env == "dev", // Add source info in dev mode
		Level:     level,
	}

	out, fileErr := openOutput(cfg.File)

	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	if fileErr != nil {
		logger.Warn("log file unavailable, logging to stdout only",
			slog.String("file", cfg.File),
			slog.Any("error", fileErr),
		)
	}

	slog.SetDefault(logger)
	return logger
}

// openOutput returns stdout, teed into a rotating file when path is set.
// Rotated files are named <path>.YYYYMMDD and path itself links to the
// current one.
func openOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}

	rl, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(fileRotationTime),
		rotatelogs.WithMaxAge(fileMaxAge),
	)
	if err != nil {
		return os.Stdout, err
	}

	return io.MultiWriter(os.Stdout, rl), nil
}

// parseLevel maps a string to slog.Level.
func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
