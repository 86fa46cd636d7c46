package ports

import "context"

// Logger is the context-aware structured logging capability used across the
// service; the slog adapter enriches records with the active trace id.
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}
