package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	// TraceIDKey is the context key for the per-request trace ID.
	TraceIDKey ctxKey = "trace_id"
	// SessionIDKey is the context key for the captcha session ID.
	SessionIDKey ctxKey = "session_id"
)

// WithContext creates a child logger carrying trace_id and session_id when
// the context has them.
func WithContext(logger Logger, ctx context.Context) Logger {
	if ctx == nil {
		return logger
	}

	var fields []zap.Field
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if sessionID := GetSessionID(ctx); sessionID != "" {
		fields = append(fields, zap.String("session_id", sessionID))
	}

	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// GetTraceID extracts the trace ID from context.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// SetTraceID adds a trace ID to context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetSessionID extracts the captcha session ID from context.
func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, SessionIDKey)
}

// SetSessionID adds a captcha session ID to context.
func SetSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

type loggerKey struct{}

// FromContext returns the Logger stored in the context, or the global logger.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return Global()
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Global()
}

// ToContext stores the Logger in the context.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
