package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leeforge/multicaptcha/json"
)

// 直方图保留的最近观测值个数
const historyLimit = 100

// Collector 指标收集器
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
	now     func() time.Time
}

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Count     int64             `json:"count,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	History   []float64         `json:"history,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
		now:     time.Now,
	}
}

// IncCounter 增加计数器
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter 增加计数器值
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metric := c.metric("counter", name, labels)
	metric.Value += value
	metric.Timestamp = c.now().Unix()
}

// ObserveHistogram 观察直方图，Value 为累计和
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metric := c.metric("histogram", name, labels)
	metric.Value += value
	metric.Count++
	metric.History = append(metric.History, value)
	if len(metric.History) > historyLimit {
		metric.History = metric.History[1:]
	}
	metric.Timestamp = c.now().Unix()
}

// metric 调用方需持有写锁
func (c *Collector) metric(typ, name string, labels map[string]string) *Metric {
	key := buildKey(name, labels)
	if m, ok := c.metrics[key]; ok {
		return m
	}
	m := &Metric{Name: name, Type: typ, Labels: labels}
	c.metrics[key] = m
	return m
}

// RecordRequest 记录 HTTP 请求
func (c *Collector) RecordRequest(method, route string, status int, duration float64) {
	labels := map[string]string{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}

	c.IncCounter("http_requests_total", labels)
	c.ObserveHistogram("http_request_duration_seconds", duration, labels)
}

// buildKey 构建指标键，标签按名称排序
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString(":" + k + "=" + labels[k])
	}
	return b.String()
}

// GetMetrics 获取所有指标的副本
func (c *Collector) GetMetrics() map[string]Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Metric, len(c.metrics))
	for k, v := range c.metrics {
		m := *v
		m.History = append([]float64(nil), v.History...)
		result[k] = m
	}
	return result
}

// GetMetric 获取单个指标，不存在时返回 nil
func (c *Collector) GetMetric(name string, labels map[string]string) *Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.metrics[buildKey(name, labels)]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Reset 重置指标
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// Middleware HTTP 指标中间件，路由标签取 chi 的路由模式
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c.RecordRequest(r.Method, route, ww.statusCode, time.Since(start).Seconds())
	})
}

// responseWriter 包装器
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// ServeHTTP 以 JSON 输出全部指标
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.GetMetrics())
}
