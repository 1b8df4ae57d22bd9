package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leeforge/multicaptcha/cache"
	"github.com/leeforge/multicaptcha/captcha"
	"github.com/leeforge/multicaptcha/glyph"
	"github.com/leeforge/multicaptcha/http/binding"
	"github.com/leeforge/multicaptcha/http/middleware"
	"github.com/leeforge/multicaptcha/http/responder"
	"github.com/leeforge/multicaptcha/logging"
	"github.com/leeforge/multicaptcha/metrics"
)

// SessionCookie 保存会话 ID 的 cookie 名
const SessionCookie = "captcha_session"

type Handler struct {
	cfg        captcha.Config
	store      captcha.AnswerStore
	renderer   captcha.GlyphRenderer
	logger     logging.Logger
	newRand    func() captcha.Rand
	secure     bool
	limiter    *middleware.RateLimiter
	metrics    *metrics.Collector
	responders *responder.ResponderFactory
}

type Option func(*Handler)

// WithGlyphRenderer 所有请求共享同一个渲染器（字体解析结果被缓存）
func WithGlyphRenderer(r captcha.GlyphRenderer) Option {
	return func(h *Handler) { h.renderer = r }
}

// WithRandSource 每个请求调用一次
func WithRandSource(fn func() captcha.Rand) Option {
	return func(h *Handler) { h.newRand = fn }
}

// WithSecureCookie 会话 cookie 只通过 HTTPS 发送
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) { h.secure = secure }
}

// WithRateLimiter 限制 GET /captcha 的频率
func WithRateLimiter(l *middleware.RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithMetrics 记录请求与验证码指标，并挂载 GET /metrics
func WithMetrics(c *metrics.Collector) Option {
	return func(h *Handler) { h.metrics = c }
}

func New(cfg captcha.Config, store captcha.AnswerStore, logger logging.Logger, opts ...Option) (*Handler, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	h := &Handler{
		cfg:     cfg,
		store:   store,
		logger:  logger.Named("captcha.http"),
		newRand: func() captcha.Rand { return captcha.NewRand() },
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		h.store = cache.NewMemoryStore(0)
	}
	if h.renderer == nil {
		h.renderer = glyph.NewRenderer(glyph.NewFontLoader(cfg.AssetsPath))
	}

	h.responders = responder.NewResponderFactory(responder.WithPanicFn(h.writeFailed))
	return h, nil
}

// Routes 挂载全部路由和中间件
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.TraceIDMiddleware(),
		middleware.TimingMiddleware(),
		logging.HTTPMiddleware(h.logger, logging.WithSkipPaths("/healthz", "/metrics")),
		logging.RecoveryMiddleware(h.logger, logging.WithPanicResponse(h.panicked)),
	)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Get("/healthz", h.health)
	r.Route("/captcha", func(r chi.Router) {
		if h.limiter != nil {
			r.With(h.limiter.Middleware).Get("/", h.issue)
		} else {
			r.Get("/", h.issue)
		}
		r.Post("/verify", h.verify)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.responders.FromRequest(w, r).NotFound("", metaOptions(r)...)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.responders.FromRequest(w, r).OK(map[string]string{"status": "ok"}, metaOptions(r)...)
}

// issue GET /captcha?type=code|math&font=<name>
func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	res := h.responders.FromRequest(w, r)

	cfg, err := h.requestConfig(r)
	if err != nil {
		res.Error(err, metaOptions(r)...)
		return
	}

	sessionID := h.ensureSession(w, r)
	ctx := logging.SetSessionID(r.Context(), sessionID)
	logger := logging.WithContext(h.logger, ctx)

	c, err := captcha.New(cfg, h.captchaOptions(sessionID, logger)...)
	if err != nil {
		res.Error(err, metaOptions(r)...)
		return
	}

	start := time.Now()
	result, err := c.Generate(ctx)
	if err != nil {
		logger.Warn("issue captcha failed", zap.Error(err))
		h.count("captcha_errors_total", map[string]string{"stage": "generate"})
		res.Error(err, metaOptions(r)...)
		return
	}
	h.count("captcha_issued_total", map[string]string{"type": string(result.Content.Type)})
	if h.metrics != nil {
		h.metrics.ObserveHistogram("captcha_generate_seconds", time.Since(start).Seconds(), nil)
	}

	res.Image(result.ContentType, result.Image)
}

type verifyRequest struct {
	Answer string `json:"answer" validate:"required,max=64"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// verify POST /captcha/verify
// 答案无论对错都会被清除，需重新获取图片
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	res := h.responders.FromRequest(w, r)

	var req verifyRequest
	if err := binding.JSON(r, &req); err != nil {
		res.BindError(err, metaOptions(r)...)
		return
	}

	sessionID := sessionFromRequest(r)
	if sessionID == "" {
		h.count("captcha_verified_total", map[string]string{"result": "no_session"})
		res.OK(verifyResponse{Valid: false}, metaOptions(r)...)
		return
	}

	ctx := logging.SetSessionID(r.Context(), sessionID)
	c, err := captcha.New(h.cfg, h.captchaOptions(sessionID, logging.WithContext(h.logger, ctx))...)
	if err != nil {
		res.Error(err, metaOptions(r)...)
		return
	}

	valid, err := c.Verify(ctx, req.Answer)
	if err != nil {
		h.count("captcha_errors_total", map[string]string{"stage": "verify"})
		res.Error(err, metaOptions(r)...)
		return
	}
	h.count("captcha_verified_total", map[string]string{"result": verifyResult(valid)})
	res.OK(verifyResponse{Valid: valid}, metaOptions(r)...)
}

// requestConfig 用查询参数覆盖类型和字体
func (h *Handler) requestConfig(r *http.Request) (captcha.Config, error) {
	cfg := h.cfg
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		t, err := captcha.ParseType(v)
		if err != nil {
			return cfg, err
		}
		cfg.Type = t
	}
	if v := q.Get("font"); v != "" {
		cfg.Font = v
	}
	return cfg, nil
}

func (h *Handler) captchaOptions(sessionID string, logger logging.Logger) []captcha.Option {
	return []captcha.Option{
		captcha.WithKey(h.cfg.SessionKey + ":" + sessionID),
		captcha.WithRand(h.newRand()),
		captcha.WithStore(h.store),
		captcha.WithGlyphRenderer(h.renderer),
		captcha.WithLogger(logger),
	}
}

func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id := sessionFromRequest(r); id != "" {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sessionFromRequest 只接受合法的 UUID，防止客户端随意构造存储 key
func sessionFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) count(name string, labels map[string]string) {
	if h.metrics != nil {
		h.metrics.IncCounter(name, labels)
	}
}

func verifyResult(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

func (h *Handler) panicked(w http.ResponseWriter, r *http.Request, _ error) {
	h.responders.FromRequest(w, r).WriteError(http.StatusInternalServerError, responder.ErrInternalServer, metaOptions(r)...)
}

func (h *Handler) writeFailed(_ http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("write response failed", zap.Error(err))
}

func metaOptions(r *http.Request) []responder.Option {
	return []responder.Option{
		responder.WithTraceID(middleware.GetTraceID(r.Context())),
		responder.WithTook(middleware.GetRequestDuration(r.Context())),
	}
}
