package logging

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// MiddlewareOption 调整请求日志中间件
type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	skip    map[string]struct{}
	onPanic func(http.ResponseWriter, *http.Request, error)
}

// WithSkipPaths 不记录这些路径的请求日志 (健康检查、指标抓取)
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(o *middlewareOptions) {
		for _, p := range paths {
			o.skip[p] = struct{}{}
		}
	}
}

// WithPanicResponse 替换 panic 后的默认 500 纯文本响应
func WithPanicResponse(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.onPanic = fn
	}
}

func buildOptions(opts []MiddlewareOption) *middlewareOptions {
	o := &middlewareOptions{skip: make(map[string]struct{})}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HTTPMiddleware logs one line per request once the handler returns.
// 4xx is logged at warn, 5xx at error.
func HTTPMiddleware(logger Logger, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := WithContext(logger, r.Context())
			r = r.WithContext(ToContext(r.Context(), reqLogger))

			if _, ok := o.skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", rw.status),
				zap.Int("bytes", rw.written),
				zap.Duration("duration", time.Since(start)),
			}
			if ct := rw.Header().Get("Content-Type"); ct != "" {
				fields = append(fields, zap.String("content_type", ct))
			}

			switch {
			case rw.status >= http.StatusInternalServerError:
				reqLogger.Error("http request", fields...)
			case rw.status >= http.StatusBadRequest:
				reqLogger.Warn("http request", fields...)
			default:
				reqLogger.Info("http request", fields...)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RecoveryMiddleware turns a handler panic into an error log and a 500.
// WithPanicResponse controls the body; the default is plain text.
func RecoveryMiddleware(logger Logger, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				WithContext(logger, r.Context()).Error("http panic recovered",
					zap.Error(err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)

				if o.onPanic != nil {
					o.onPanic(w, r, err)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
