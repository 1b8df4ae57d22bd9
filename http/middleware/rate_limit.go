package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/multicaptcha/http/responder"
	"github.com/leeforge/multicaptcha/logging"
)

// RateLimitBackend 固定窗口计数后端
type RateLimitBackend interface {
	// Incr 计数加一，返回当前窗口内的计数
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter 按客户端 IP 的固定窗口限流
type RateLimiter struct {
	backend RateLimitBackend
	limit   int
	window  time.Duration
	keyFunc func(*http.Request) string
}

// NewRateLimiter 每个客户端在 window 内最多 limit 次请求
func NewRateLimiter(backend RateLimitBackend, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		backend: backend,
		limit:   limit,
		window:  window,
		keyFunc: clientIP,
	}
}

// Middleware 限流中间件，后端出错时放行
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "rate:" + rl.keyFunc(r)

		count, err := rl.backend.Incr(r.Context(), key, rl.window)
		if err != nil {
			logging.FromContext(r.Context()).Warn("rate limit backend failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(int64(rl.limit)-count, 0)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			responder.New(w, r, nil).TooManyRequests("", responder.WithTraceID(GetTraceID(r.Context())))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP RemoteAddr 的主机部分，代理头由 chi RealIP 预先处理
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryRateBackend 进程内计数，多实例部署请使用 Redis 后端
type MemoryRateBackend struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryRateBackend() *MemoryRateBackend {
	return &MemoryRateBackend{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// 超过该数量时清理过期窗口
const memoryPruneThreshold = 10000

func (b *MemoryRateBackend) Incr(_ context.Context, key string, d time.Duration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if len(b.windows) > memoryPruneThreshold {
		for k, w := range b.windows {
			if !now.Before(w.resetAt) {
				delete(b.windows, k)
			}
		}
	}

	w, ok := b.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		b.windows[key] = w
	}
	w.count++
	return w.count, nil
}
