package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultMu  sync.RWMutex
	defaultLog = Make(os.Stderr)
)

// Default returns the process-wide logger. Commands and the interpreter's
// trace hooks write through it unless handed a logger explicitly.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	return defaultLog
}

// Config replaces the process-wide logger with one derived from it using opts.
func Config(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultLog = defaultLog.Wrap(opts...)
}

// Frames skipped to report the caller of a package-level function:
// runtime.Callers, logAt, emit, the exported function.
const defaultSkip = 4

func emit(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	l := Default()
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	l.logAt(ctx, defaultSkip, level, msg, attrs...)
}

// TraceContext logs at [LevelTrace] with the default logger.
func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, LevelTrace, msg, attrs)
}

// DebugContext logs at [LevelDebug] with the default logger.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, LevelDebug, msg, attrs)
}

// InfoContext logs at [LevelInfo] with the default logger.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, LevelInfo, msg, attrs)
}

// WarnContext logs at [LevelWarn] with the default logger.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, LevelWarn, msg, attrs)
}

// ErrorContext logs at [LevelError] with the default logger.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, LevelError, msg, attrs)
}

// Error logs at [LevelError] with the default logger. It is meant for the
// last report of a process, after the command context is gone.
func Error(msg string, attrs ...slog.Attr) {
	emit(context.Background(), LevelError, msg, attrs)
}
