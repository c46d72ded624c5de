// Package log builds the host's structured logger (slog) from configuration.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/reglet-dev/guestcall/config"
	"github.com/reglet-dev/guestcall/domain/errors"
)

// ParseLevel maps a configured level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New creates a logger writing to w in the configured format and level.
func New(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

// ErrorAttr renders err as a structured "error" group.
func ErrorAttr(err error) slog.Attr {
	detail := errors.ToErrorDetail(err)
	if detail == nil {
		return slog.Attr{}
	}
	attrs := []any{
		slog.String("message", detail.Message),
		slog.String("type", detail.Type),
	}
	if detail.Code != "" {
		attrs = append(attrs, slog.String("code", detail.Code))
	}
	return slog.Group("error", attrs...)
}
