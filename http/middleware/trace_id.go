package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/leeforge/multicaptcha/logging"
)

// TraceIDHeader is the HTTP header name for trace ID
const TraceIDHeader = "X-Trace-ID"

// TraceIDMiddleware adds a trace ID to each request.
// An incoming X-Trace-ID header is reused, otherwise a new UUID is generated.
// The ID is stored under the logging context key so request loggers pick it up.
func TraceIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			w.Header().Set(TraceIDHeader, traceID)

			ctx := logging.SetTraceID(r.Context(), traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	return logging.GetTraceID(ctx)
}
