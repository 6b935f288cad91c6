package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the application logger. It embeds *slog.Logger so the usual
// Info/Warn/Error/Debug/Log methods are available directly.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger writing to stdout: human-readable text with
// debug level in development, JSON at info level otherwise.
func NewLogger(isDevelopment bool) *Logger {
	return newLogger(os.Stdout, isDevelopment)
}

// NewNopLogger returns a logger that discards everything. Intended for tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newLogger(w io.Writer, isDevelopment bool) *Logger {
	if isDevelopment {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// WithFields returns a child logger carrying the given key/value pairs.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, LoggerContextKey, l)
}
