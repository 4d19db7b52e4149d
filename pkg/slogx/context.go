package slogx

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/npmsdk/pkg/idx"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

// WithContext stores logger in ctx. Transport logs requests made with ctx
// through it instead of its own Logger.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or fallback when there is none.
// A nil fallback means slog.Default().
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// WithRequestID pins the request id used for the next outbound call(s) made
// with ctx, so a caller can correlate its own logs with the SDK's.
func WithRequestID(ctx context.Context, reqID idx.ID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, reqID)
}

// RequestID returns the id pinned by WithRequestID, if any.
func RequestID(ctx context.Context) (idx.ID, bool) {
	id, ok := ctx.Value(requestIDKey{}).(idx.ID)
	if !ok || id.IsZero() {
		return idx.Zero, false
	}
	return id, true
}
