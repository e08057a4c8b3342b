// Package observability builds the structured logger used by testlaunch.
//
// Logs are diagnostics for the launcher itself and always go to stderr.
// The child's output is never routed through the logger: it is inherited
// directly from the launcher's own streams.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

const redactedValue = "[REDACTED]"

type contextKey struct{}

// Config holds the configuration for the logger.
type Config struct {
	Level   string
	Format  string
	Writer  io.Writer
	RunID   string
	Version string
}

// NewRunID returns a random identifier that tags every log line of one
// launcher invocation.
func NewRunID() string {
	return uuid.NewString()
}

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from ctx, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return slog.Default()
}

// NewLogger creates a structured logger from the given configuration.
func NewLogger(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("invalid log format: %q (allowed: text, json)", cfg.Format)
	}

	logger := slog.New(handler)
	if cfg.RunID != "" {
		logger = logger.With(slog.String("run.id", cfg.RunID))
	}
	if cfg.Version != "" {
		logger = logger.With(slog.String("cli.version", cfg.Version))
	}

	return logger, nil
}

// ParseLevel converts a level name to a slog level. Empty means warn:
// the launcher stays quiet unless asked otherwise.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q (allowed: error, warn, info, debug)", level)
	}
}

// ValidateFormat reports whether format is accepted by NewLogger.
func ValidateFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid log format: %q (allowed: text, json)", format)
	}
}

func redactAttr(_ []string, attr slog.Attr) slog.Attr {
	if IsSensitiveKey(attr.Key) {
		return slog.String(attr.Key, redactedValue)
	}

	return attr
}

// IsSensitiveKey reports whether a log attribute or environment variable
// name looks like it carries a credential.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if key == "authorization" {
		return true
	}

	sensitiveSubstrings := []string{"token", "api_key", "apikey", "secret", "credential", "password"}
	for _, pattern := range sensitiveSubstrings {
		if strings.Contains(key, pattern) {
			return true
		}
	}

	return false
}
