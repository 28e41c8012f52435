// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it creates a logger with the
// request ID already attached, so every log line from a handler is
// automatically correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("product created", "sku", sku)
//	// → time=... level=INFO msg="product created" request_id=a1b2c3d4 sku=SKU-...
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/tradeyard/tradeyard/config"
)

var L *slog.Logger

// mongoSink holds the Mongo handler when EnableMongoSink succeeded, so
// Shutdown can flush it.
var mongoSink *MongoHandler

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts) // structured JSON for log aggregators
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts) // human-readable for dev
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// EnableMongoSink fans the default logger out to a MongoDB collection when
// LOG_MONGO_URI is configured. A no-op otherwise. Call Shutdown before exit
// to flush pending documents.
func EnableMongoSink() error {
	uri := config.LogMongoURI()
	if uri == "" {
		return nil
	}

	h, err := NewMongoHandler(uri, config.LogMongoDatabase(), config.LogMongoCollection())
	if err != nil {
		return err
	}

	mongoSink = h
	L = slog.New(NewMultiHandler(L.Handler(), h))
	slog.SetDefault(L)
	return nil
}

// Shutdown flushes the Mongo sink if one is active.
func Shutdown() {
	if mongoSink != nil {
		mongoSink.Close()
		mongoSink = nil
	}
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request-scoped *slog.Logger stored in ctx by the
// Logger middleware (pre-tagged with request_id). Falls back to the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware — not usually needed in application code.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
