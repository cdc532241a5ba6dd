package observability

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey contextKey = "finitefield.org/catalog-client/internal/platform/observability/logger"
	cycleContextKey  contextKey = "finitefield.org/catalog-client/internal/platform/observability/cycle"
)

var noopLogger = zap.NewNop()

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// FromContextOr retrieves the logger from context, returning fallback when none is set.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger := FromContext(ctx); logger != noopLogger {
		return logger
	}
	if fallback == nil {
		return noopLogger
	}
	return fallback
}

// WithCycleID tags the context with the identifier of a fetch cycle.
func WithCycleID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, cycleContextKey, id)
}

// CycleID returns the fetch cycle identifier stored on ctx, if any.
func CycleID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(cycleContextKey).(string)
	return id
}
