package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

// RunIDKey is the context key for the batch run id.
const RunIDKey ctxKey = "run_id"

// SetRunID adds the batch run id to context.
func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID extracts the batch run id from context.
func GetRunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(RunIDKey).(string); ok {
		return s
	}
	return ""
}

// WithContext creates a child logger carrying the run id found in ctx.
func WithContext(logger Logger, ctx context.Context) Logger {
	if id := GetRunID(ctx); id != "" {
		return logger.With(zap.String("run_id", id))
	}
	return logger
}

type loggerKey struct{}

// FromContext returns the Logger stored in the context, or the global logger if none.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return Global()
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Global()
}

// ToContext stores the Logger in the context.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
