package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Vodeneev/parlaybot/internal/pkg/config"
)

// SetupLogger настраивает глобальный logger: текст в stdout и JSON в cfg.File, если он задан.
func SetupLogger(cfg *config.LoggingConfig, serviceName string) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &config.LoggingConfig{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var file io.Writer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
	}

	logger := NewLogger(os.Stdout, file, level).With("service", serviceName)
	slog.SetDefault(logger)
	return logger, nil
}

// NewLogger builds the fan-out logger. json may be nil.
func NewLogger(text, json io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	// Всегда добавляем handler для stdout
	handlers := []slog.Handler{slog.NewTextHandler(text, opts)}
	if json != nil {
		handlers = append(handlers, slog.NewJSONHandler(json, opts))
	}

	return slog.New(&MultiHandler{handlers: handlers})
}

// ParseLevel maps a config level name onto slog; empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// MultiHandler отправляет логи в несколько handlers
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var lastErr error
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}
