package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithJobID tags the context logger with a job id so every downstream record
// (engine and directory client alike) can be correlated.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("job_id", jobID))
}
