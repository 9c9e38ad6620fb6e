package orq

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/orq/geom"
)

// Logger wraps slog.Logger with orq-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKind adds the index kind to the logger.
func (l *Logger) WithKind(kind Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", kind.String()),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, key geom.Point, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"key", key,
		)
	}
}

// LogBatchInsert logs a batch insert operation.
func (l *Logger) LogBatchInsert(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch insert stopped early",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "batch insert completed",
			"count", count,
		)
	}
}

// LogQuery logs a window query.
func (l *Logger) LogQuery(ctx context.Context, window geom.BBox, matches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "window query failed",
			"window", window,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "window query completed",
			"window", window,
			"matches", matches,
		)
	}
}

// LogBuild logs the construction of an index.
func (l *Logger) LogBuild(ctx context.Context, records int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"records", records,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"records", records,
			"duration", duration,
		)
	}
}

// LogClear logs the removal of all records.
func (l *Logger) LogClear(ctx context.Context, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clear failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clear completed",
			"records", records,
		)
	}
}

// LogCheck logs a structural check.
func (l *Logger) LogCheck(ctx context.Context, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "check failed",
			"records", records,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "check passed",
			"records", records,
		)
	}
}
