package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stderr
	stderr = buf
	t.Cleanup(func() { stderr = prev })
	return buf
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected Level 'info', got '%s'", cfg.Level)
	}
	if !cfg.LogInTerminal {
		t.Error("expected LogInTerminal to be true")
	}
	if cfg.LogInFile {
		t.Error("expected LogInFile to be false")
	}
}

func TestConfigTransportLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{Level: tt.level}
			if got := cfg.TransportLevel(); got != tt.expected {
				t.Errorf("TransportLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTerminalOutputRespectsLevel(t *testing.T) {
	buf := captureStderr(t)

	cfg := DefaultConfig()
	cfg.Level = "warn"
	cfg.Format = "json"
	logger := NewLogger(cfg)

	logger.Info("hidden")
	logger.Warn("shown", zap.String("font", "gobold"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered: %s", out)
	}
	if !strings.Contains(out, `"font":"gobold"`) {
		t.Errorf("expected structured field in output: %s", out)
	}
}

func TestFileOutputPerLevel(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { _ = CloseAllWriters() })

	cfg := DefaultConfig()
	cfg.Director = dir
	cfg.LogInTerminal = false
	cfg.LogInFile = true
	cfg.Format = "json"
	logger := NewLogger(cfg)

	logger.Info("info entry")
	logger.Error("error entry")
	_ = logger.Sync()

	date := time.Now().Format("2006-01-02")
	info, err := os.ReadFile(filepath.Join(dir, date, "info.log"))
	if err != nil {
		t.Fatalf("read info log: %v", err)
	}
	if !strings.Contains(string(info), "info entry") || strings.Contains(string(info), "error entry") {
		t.Errorf("info.log has unexpected content: %s", info)
	}

	errLog, err := os.ReadFile(filepath.Join(dir, date, "error.log"))
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if !strings.Contains(string(errLog), "error entry") {
		t.Errorf("error.log missing entry: %s", errLog)
	}
}

func TestLevelWriterRollsDate(t *testing.T) {
	dir := t.TempDir()
	w := newLevelWriter(Config{Director: dir, MaxSize: 1}, "info")
	defer w.Close()

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	w.now = func() time.Time { return day }
	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}

	w.now = func() time.Time { return day.AddDate(0, 0, 1) }
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}

	for _, date := range []string{"2026-03-01", "2026-03-02"} {
		if _, err := os.Stat(filepath.Join(dir, date, "info.log")); err != nil {
			t.Errorf("expected log file for %s: %v", date, err)
		}
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Info("discarded")
	if logger.Zap().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("nop logger should not enable any level")
	}
}

func TestContextFields(t *testing.T) {
	ctx := SetTraceID(context.Background(), "trace-1")
	ctx = SetSessionID(ctx, "sess-1")

	if GetTraceID(ctx) != "trace-1" {
		t.Errorf("GetTraceID() = %q", GetTraceID(ctx))
	}
	if GetSessionID(ctx) != "sess-1" {
		t.Errorf("GetSessionID() = %q", GetSessionID(ctx))
	}
	if GetTraceID(context.Background()) != "" {
		t.Error("empty context should yield empty trace id")
	}

	buf := captureStderr(t)
	cfg := DefaultConfig()
	cfg.Format = "json"
	WithContext(NewLogger(cfg), ctx).Info("with ctx")

	out := buf.String()
	if !strings.Contains(out, `"trace_id":"trace-1"`) || !strings.Contains(out, `"session_id":"sess-1"`) {
		t.Errorf("context fields missing: %s", out)
	}
}

func TestContextLoggerStorage(t *testing.T) {
	logger := Nop().Named("stored")
	ctx := ToContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext should return the stored logger")
	}
}

func TestSetGlobal(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	custom := Nop()
	SetGlobal(custom)
	if Global() != custom {
		t.Error("Global() should return the logger set by SetGlobal")
	}
	if FromContext(context.Background()) != custom {
		t.Error("FromContext without a logger should fall back to Global()")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	buf := captureStderr(t)
	cfg := DefaultConfig()
	cfg.Format = "json"
	logger := NewLogger(cfg)

	handler := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			t.Error("request logger missing from context")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/captcha?type=math", nil)
	req = req.WithContext(SetTraceID(req.Context(), "abc"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{`"status":418`, `"path":"/captcha"`, `"trace_id":"abc"`, `"bytes":15`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestHTTPMiddlewareSkipPaths(t *testing.T) {
	buf := captureStderr(t)
	cfg := DefaultConfig()
	cfg.Format = "json"

	called := false
	handler := HTTPMiddleware(NewLogger(cfg), WithSkipPaths("/healthz"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called {
		t.Fatal("skipped path must still reach the handler")
	}
	if strings.Contains(buf.String(), "http request") {
		t.Errorf("skipped path was logged: %s", buf.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ToContext(req.Context(), Nop()))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecoveryMiddlewarePanicResponse(t *testing.T) {
	var got error
	handler := RecoveryMiddleware(Nop(), WithPanicResponse(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusServiceUnavailable)
	}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if got == nil || got.Error() != "boom" {
		t.Errorf("panic value = %v, want boom", got)
	}
}
