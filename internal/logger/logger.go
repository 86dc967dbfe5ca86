package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

var (
	log  *slog.Logger
	once sync.Once
)

// Init sets up the global logger.
// env: "development" gives a debug-level text handler, anything else a JSON handler.
func Init(env string) {
	InitWithWriter(env, os.Stdout)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(env string, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	var handler slog.Handler
	switch env {
	case "development":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	case "test":
		opts.Level = slog.LevelWarn
		opts.AddSource = false
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	log = slog.New(handler).With("service", "businessconnect")
	slog.SetDefault(log)
}

// GetLogger returns the global logger, initialising a development one if needed.
func GetLogger() *slog.Logger {
	once.Do(func() {
		if log == nil {
			Init("development")
		}
	})
	return log
}

// emit writes a record attributed to the caller of the exported helper
// that called it. Every helper must call emit directly.
func emit(ctx context.Context, l *slog.Logger, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, emit, helper
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

// ============================================
// Shortcuts
// ============================================

func Debug(msg string, args ...any) {
	emit(context.Background(), GetLogger(), slog.LevelDebug, msg, args...)
}

func Info(msg string, args ...any) {
	emit(context.Background(), GetLogger(), slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	emit(context.Background(), GetLogger(), slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	emit(context.Background(), GetLogger(), slog.LevelError, msg, args...)
}

// Fatal logs and exits with code 1.
func Fatal(msg string, args ...any) {
	emit(context.Background(), GetLogger(), slog.LevelError, msg, args...)
	os.Exit(1)
}

// With returns a child logger, e.g. logger.With("job_id", id).Info("job closed").
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// ============================================
// Specialised loggers
// ============================================

// HTTPLog logs an outbound HTTP call (payment gateway, SMS gateway).
func HTTPLog(method, url string, status int, duration time.Duration, err error) {
	fields := []any{
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
		emit(context.Background(), GetLogger(), slog.LevelError, "outbound http request failed", fields...)
		return
	}
	emit(context.Background(), GetLogger(), slog.LevelInfo, "outbound http request", fields...)
}

// WorkerLog logs a background job run.
func WorkerLog(worker, operation string, err error, args ...any) {
	fields := append([]any{
		"worker", worker,
		"operation", operation,
	}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		emit(context.Background(), GetLogger(), slog.LevelError, "worker operation failed", fields...)
	} else {
		emit(context.Background(), GetLogger(), slog.LevelInfo, "worker operation completed", fields...)
	}
}
