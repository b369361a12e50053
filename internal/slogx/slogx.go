package slogx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates the service logger. format is "json" or "text".
func New(level, format string) *slog.Logger {
	return NewWithWriter(level, format, os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "walletauth")
}

// ParseLevel maps a level name to a slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
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

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger bound to ctx, or the default logger
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := Lookup(ctx); ok {
		return l
	}
	return slog.Default()
}

// Lookup returns the logger bound to ctx, if any
func Lookup(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	return l, ok && l != nil
}
