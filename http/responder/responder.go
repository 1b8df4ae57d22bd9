package responder

import (
	"net/http"
	"strconv"

	"github.com/leeforge/multicaptcha/json"
)

type PanicFn func(http.ResponseWriter, *http.Request, error)

func DefaultPanicFn(w http.ResponseWriter, r *http.Request, err error) {
	panic(err)
}

type ResponderFactory struct {
	panicFn PanicFn
}

// FactoryOption defines configuration options for ResponderFactory
type FactoryOption func(*ResponderFactory)

// WithPanicFn sets a custom panic handler
func WithPanicFn(panicFn PanicFn) FactoryOption {
	return func(f *ResponderFactory) {
		f.panicFn = panicFn
	}
}

// NewResponderFactory creates a new ResponderFactory with options
func NewResponderFactory(opts ...FactoryOption) *ResponderFactory {
	f := &ResponderFactory{
		panicFn: DefaultPanicFn,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *ResponderFactory) FromRequest(w http.ResponseWriter, r *http.Request) *Responder {
	return &Responder{
		w:       w,
		r:       r,
		panicFn: f.panicFn,
	}
}

type Responder struct {
	w       http.ResponseWriter
	r       *http.Request
	panicFn PanicFn
}

func New(w http.ResponseWriter, r *http.Request, panicFn PanicFn) *Responder {
	if panicFn == nil {
		panicFn = DefaultPanicFn
	}
	return &Responder{
		w:       w,
		r:       r,
		panicFn: panicFn,
	}
}

func (r *Responder) writeRaw(status int, payload []byte, contentType string) {
	r.w.Header().Set("Content-Type", contentType)
	r.w.WriteHeader(status)
	if _, err := r.w.Write(payload); err != nil {
		r.panicFn(r.w, r.r, err)
	}
}

func (r *Responder) writeJson(status int, payload *Response) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fallback := []byte("{\"error\":{\"code\":5000,\"message\":\"encode failed\"}}")
		r.writeRaw(http.StatusInternalServerError, fallback, "application/json")
		r.panicFn(r.w, r.r, err)
		return
	}
	r.writeRaw(status, raw, "application/json")
}

// Write sends a success response with data
func (r *Responder) Write(status int, payload any, opts ...Option) {
	r.writeJson(status, &Response{
		Data: payload,
		Meta: *NewMeta(opts...),
	})
}

// WriteError sends an error response
func (r *Responder) WriteError(status int, err Error, opts ...Option) {
	r.writeJson(status, &Response{
		Error: &err,
		Meta:  *NewMeta(opts...),
	})
}

// Image 直接输出图片字节，不走 JSON 信封。
// 验证码图片每次请求都不同，禁止缓存。
func (r *Responder) Image(contentType string, data []byte) {
	h := r.w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	r.writeRaw(http.StatusOK, data, contentType)
}

// OK responds with 200 OK and data
func (r *Responder) OK(data any, opts ...Option) {
	r.Write(http.StatusOK, data, opts...)
}

// BindError responds with 400 Bad Request for binding errors
func (r *Responder) BindError(details any, opts ...Option) {
	r.WriteError(http.StatusBadRequest, NewErrorWithDetails(ErrCodeBindFailed, "", details), opts...)
}

// NotFound responds with 404 Not Found
func (r *Responder) NotFound(message string, opts ...Option) {
	err := ErrRouteNotFound
	if message != "" {
		err.Message = message
	}
	r.WriteError(http.StatusNotFound, err, opts...)
}

// Error 根据 AppError 的状态码和错误码输出
func (r *Responder) Error(err error, opts ...Option) {
	status, payload := FromAppError(err)
	r.WriteError(status, payload, opts...)
}

// TooManyRequests responds with 429 Too Many Requests
func (r *Responder) TooManyRequests(message string, opts ...Option) {
	err := ErrTooManyRequests
	if message != "" {
		err.Message = message
	}
	r.WriteError(http.StatusTooManyRequests, err, opts...)
}
