package linguastore

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with store-specific helpers.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithCollection adds a collection field to the logger.
func (l *Logger) WithCollection(c Collection) *Logger {
	return &Logger{
		Logger: l.Logger.With("collection", string(c)),
	}
}

// LogCreate logs a record creation.
func (l *Logger) LogCreate(ctx context.Context, c Collection, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"collection", string(c),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "create completed",
			"collection", string(c),
			"id", id,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, c Collection, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"collection", string(c),
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"collection", string(c),
			"id", id,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, c Collection, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"collection", string(c),
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"collection", string(c),
			"id", id,
		)
	}
}

// LogQuery logs a query over a collection.
func (l *Logger) LogQuery(ctx context.Context, query string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"query", query,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"query", query,
			"results", results,
		)
	}
}

// LogRecovery logs opening a store and rebuilding its indexes.
func (l *Logger) LogRecovery(ctx context.Context, path string, content, groups, nextID uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "store recovery failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "store opened",
			"path", path,
			"content", content,
			"study_groups", groups,
			"next_id", nextID,
		)
	}
}

// LogBackup logs a backup or restore.
func (l *Logger) LogBackup(ctx context.Context, op, name string, bytes uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, op+" completed",
			"name", name,
			"bytes", bytes,
		)
	}
}
