package shed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/orchestrator"
	"github.com/hupe1980/shed/store"
)

// Logger wraps slog.Logger with shed-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithID adds an ID field to the logger.
func (l *Logger) WithID(id model.ID) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", uint64(id)),
	}
}

// LogInsert logs an insert operation. A duplicate id is an expected outcome
// and is not logged as an error.
func (l *Logger) LogInsert(ctx context.Context, rec model.Record, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "insert completed",
			"id", uint64(rec.ID),
			"weight", rec.Weight.String(),
		)
	case errors.Is(err, store.ErrDuplicateKey), errors.Is(err, ErrInvalidInput):
		l.InfoContext(ctx, "insert rejected",
			"id", uint64(rec.ID),
			"error", err,
		)
	default:
		l.logFailure(ctx, "insert failed", err, "id", uint64(rec.ID))
	}
}

// LogCount logs a count operation.
func (l *Logger) LogCount(ctx context.Context, n int, err error) {
	if err != nil {
		l.logFailure(ctx, "count failed", err)
	} else {
		l.DebugContext(ctx, "count completed",
			"count", n,
		)
	}
}

// LogCull logs a cull run.
func (l *Logger) LogCull(ctx context.Context, out orchestrator.Outcome, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrConsistencyViolation):
		// The orchestrator logs the violation at ERROR when it detects it.
		l.DebugContext(ctx, "cull aborted by concurrent removal",
			"error", err,
		)
	case err != nil:
		l.logFailure(ctx, "cull failed", err)
	default:
		l.InfoContext(ctx, "cull completed",
			"status", out.Status.String(),
			"outcome", out.String(),
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(ctx context.Context, n int, err error) {
	if err != nil {
		l.logFailure(ctx, "clear failed", err, "cleared", n)
	} else {
		l.InfoContext(ctx, "clear completed",
			"cleared", n,
		)
	}
}

// LogPublish logs a failed event publication.
func (l *Logger) LogPublish(ctx context.Context, typ string, id model.ID, err error) {
	if err != nil {
		l.WarnContext(ctx, "event publish failed",
			"type", typ,
			"id", uint64(id),
			"error", err,
		)
	}
}

// logFailure logs err at ERROR, or at DEBUG when it is a storage failure the
// store already logged where it was detected.
func (l *Logger) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, store.ErrStorage) {
		l.DebugContext(ctx, msg, args...)
		return
	}
	l.ErrorContext(ctx, msg, args...)
}
