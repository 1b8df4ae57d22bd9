package responder

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/leeforge/multicaptcha/errors"
)

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestResponderWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	var panicCalled bool
	res := New(rr, req, func(_ http.ResponseWriter, _ *http.Request, _ error) {
		panicCalled = true
	})

	res.Write(http.StatusCreated, "hello", WithTraceID("trace"), WithTook(42))

	if panicCalled {
		t.Fatalf("panicFn should not be called on success")
	}
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %q", ct)
	}

	resp := decodeResponse(t, rr)
	if dataStr, ok := resp.Data.(string); !ok || dataStr != "hello" {
		t.Fatalf("unexpected data payload: %+v", resp.Data)
	}
	if resp.Error != nil {
		t.Fatalf("expected nil error, got %+v", resp.Error)
	}
	if resp.Meta.TraceId != "trace" || resp.Meta.Took != 42 {
		t.Fatalf("unexpected meta: %+v", resp.Meta)
	}
}

func TestResponderImage(t *testing.T) {
	rr := httptest.NewRecorder()
	res := New(rr, httptest.NewRequest(http.MethodGet, "/captcha", nil), nil)

	res.Image("image/png", []byte{0x89, 'P', 'N', 'G'})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content-type %q", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc == "" {
		t.Fatalf("expected Cache-Control header")
	}
	if rr.Header().Get("Content-Length") != "4" || rr.Body.Len() != 4 {
		t.Fatalf("unexpected body length %d", rr.Body.Len())
	}
}

func TestResponderBindError(t *testing.T) {
	rr := httptest.NewRecorder()
	res := New(rr, httptest.NewRequest(http.MethodPost, "/", nil), nil)

	res.BindError("request body is empty", WithTraceID("trace-err"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Error == nil || resp.Error.Code != ErrCodeBindFailed {
		t.Fatalf("unexpected error payload: %+v", resp.Error)
	}
	if resp.Error.Message != "Invalid Request Body" {
		t.Fatalf("expected default message, got %q", resp.Error.Message)
	}
	if resp.Meta.TraceId != "trace-err" {
		t.Fatalf("expected trace id in meta, got %+v", resp.Meta)
	}
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{
			name:       "invalid configuration",
			err:        apperrors.NewInvalid("type", "emoji", "must be one of: code math"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidConfig,
			wantMsg:    "invalid value for type: emoji",
		},
		{
			name:       "unknown font",
			err:        apperrors.NewNotFound("font", "comic").WithCode(apperrors.CodeUnknownFont),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeUnknownFont,
			wantMsg:    "font not found",
		},
		{
			name:       "store failure hides cause",
			err:        apperrors.NewExternal("redis: connection refused").WithCode(apperrors.CodeAnswerStore),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeAnswerStore,
			wantMsg:    "Answer Store Unavailable",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalServer,
			wantMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := FromAppError(tt.err)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if payload.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", payload.Code, tt.wantCode)
			}
			if payload.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", payload.Message, tt.wantMsg)
			}
		})
	}
}

func TestResponderError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	res := New(rr, httptest.NewRequest(http.MethodGet, "/captcha", nil), nil)

	res.Error(apperrors.NewExternal("dial tcp 10.0.0.1:6379").
		WithCode(apperrors.CodeAnswerStore).
		WithDetail("key", "captcha:abc"))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Error.Details != nil {
		t.Fatalf("expected no details on 5xx, got %+v", resp.Error.Details)
	}
}

func TestFactoryPanicFn(t *testing.T) {
	var got error
	factory := NewResponderFactory(WithPanicFn(func(_ http.ResponseWriter, _ *http.Request, err error) {
		got = err
	}))

	w := &failingWriter{ResponseRecorder: httptest.NewRecorder()}
	factory.FromRequest(w, httptest.NewRequest(http.MethodGet, "/", nil)).OK("x")

	if got == nil {
		t.Fatalf("expected panicFn to receive the write error")
	}
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("client gone")
}
