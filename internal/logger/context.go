package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

type ctxKey struct{}

var fallback atomic.Pointer[zap.Logger]

// SetDefault sets the logger FromContext returns when ctx carries none.
// Background work started outside a request (ingest jobs, CLI commands)
// logs through it.
func SetDefault(l *zap.Logger) {
	fallback.Store(l)
}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context. Without one it returns the
// default set by SetDefault, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	if l := fallback.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// With returns ctx carrying the context logger enriched with fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}
