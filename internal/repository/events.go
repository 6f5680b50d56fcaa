package repository

import (
	"context"
	"log/slog"
)

// LogEventRepository writes events to the process log. It serves backends
// without an events table.
type LogEventRepository struct{}

func (LogEventRepository) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	attrs := []any{"code", code}
	for k, v := range meta {
		attrs = append(attrs, k, v)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.Log(ctx, lvl, msg, attrs...)
	return nil
}
