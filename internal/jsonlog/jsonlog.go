// Package jsonlog wraps log/slog with level selection, environment-dependent
// output format and request correlation IDs carried on the context.
package jsonlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
)

type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID returns a context carrying the request correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation ID stored on ctx, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

type Logger struct {
	minLevel Level
	slogger  *slog.Logger
}

// New returns a Logger writing text in development and JSON everywhere else.
func New(out io.Writer, minLevel Level, env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: minLevel.ToSlogLevel(),
	}

	if env == "development" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return &Logger{
		minLevel: minLevel,
		slogger:  slog.New(handler),
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError, "production")
}

// Level returns the minimum level the logger emits.
func (l *Logger) Level() Level {
	return l.minLevel
}

func (l *Logger) Info(msg string, attrs ...any) {
	l.slogger.Info(msg, attrs...)
}

func (l *Logger) Error(msg string, attrs ...any) {
	l.slogger.Error(msg, attrs...)
}

func (l *Logger) Debug(msg string, attrs ...any) {
	l.slogger.Debug(msg, attrs...)
}

func (l *Logger) Warn(msg string, attrs ...any) {
	l.slogger.Warn(msg, attrs...)
}

// Write lets the logger back a *log.Logger, such as http.Server.ErrorLog.
// JSON lines keep their level and attributes; plain text is logged at ERROR.
func (l *Logger) Write(message []byte) (int, error) {
	trimmed := bytes.TrimSpace(message)

	var entry map[string]any
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		l.Error(string(trimmed), "source", "stdlog")
		return len(message), nil
	}

	level, _ := entry["level"].(string)
	msg, ok := entry["msg"].(string)
	if !ok {
		msg = "log entry"
	}

	delete(entry, "level")
	delete(entry, "msg")

	attrs := make([]any, 0, len(entry)*2)
	for key, value := range entry {
		attrs = append(attrs, key, value)
	}

	switch level {
	case "DEBUG":
		l.Debug(msg, attrs...)
	case "WARN":
		l.Warn(msg, attrs...)
	case "ERROR":
		l.Error(msg, attrs...)
	default:
		l.Info(msg, attrs...)
	}

	return len(message), nil
}

func withCorrelation(ctx context.Context, attrs []any) []any {
	if corrID := CorrelationID(ctx); corrID != "" {
		attrs = append(attrs, "correlation_id", corrID)
	}
	return attrs
}

func (l *Logger) InfoWithContext(ctx context.Context, msg string, attrs ...any) {
	l.Info(msg, withCorrelation(ctx, attrs)...)
}

func (l *Logger) ErrorWithContext(ctx context.Context, msg string, attrs ...any) {
	l.Error(msg, withCorrelation(ctx, attrs)...)
}

func (l *Logger) DebugWithContext(ctx context.Context, msg string, attrs ...any) {
	l.Debug(msg, withCorrelation(ctx, attrs)...)
}

func (l *Logger) WarnWithContext(ctx context.Context, msg string, attrs ...any) {
	l.Warn(msg, withCorrelation(ctx, attrs)...)
}

// PrintFatal logs err with a stack trace and exits.
func (l *Logger) PrintFatal(err error, properties map[string]string) {
	attrs := make([]any, 0, len(properties)*2+4)
	attrs = append(attrs, "error", err.Error(), "stack", string(debug.Stack()))

	for key, value := range properties {
		attrs = append(attrs, key, value)
	}

	l.Error("fatal error", attrs...)
	os.Exit(1)
}
