package captcha

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/multicaptcha/cache"
	apperrors "github.com/leeforge/multicaptcha/errors"
	"github.com/leeforge/multicaptcha/glyph"
	"github.com/leeforge/multicaptcha/logging"
)

// Captcha 验证码生成器
// 单个实例不支持并发调用 Generate
type Captcha struct {
	cfg      Config
	rng      Rand
	store    AnswerStore
	renderer GlyphRenderer
	encoder  Encoder
	logger   logging.Logger
	key      string

	fonts    *FontSelector
	raster   *Rasterizer
	pipeline *Pipeline

	// 随机字符类型缓存的验证码，Reset 后重新生成
	code *Content
}

// Option 配置选项
type Option func(*Captcha)

// WithRand 指定随机源
func WithRand(rng Rand) Option {
	return func(c *Captcha) { c.rng = rng }
}

// WithStore 指定答案存储
func WithStore(store AnswerStore) Option {
	return func(c *Captcha) { c.store = store }
}

// WithGlyphRenderer 指定字符渲染器
func WithGlyphRenderer(r GlyphRenderer) Option {
	return func(c *Captcha) { c.renderer = r }
}

// WithEncoder 指定图片编码器
func WithEncoder(e Encoder) Option {
	return func(c *Captcha) { c.encoder = e }
}

// WithLogger 指定日志
func WithLogger(l logging.Logger) Option {
	return func(c *Captcha) { c.logger = l }
}

// WithKey 覆盖答案存储的 key，默认为 Config.SessionKey
func WithKey(key string) Option {
	return func(c *Captcha) { c.key = key }
}

// New 创建验证码生成器
func New(cfg Config, opts ...Option) (*Captcha, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Captcha{cfg: cfg, key: cfg.SessionKey}
	for _, opt := range opts {
		opt(c)
	}

	if c.rng == nil {
		c.rng = NewRand()
	}
	if c.store == nil {
		c.store = cache.NewMemoryStore(0)
	}
	if c.renderer == nil {
		c.renderer = glyph.NewRenderer(glyph.NewFontLoader(cfg.AssetsPath))
	}
	if c.encoder == nil {
		c.encoder = PNGEncoder{}
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}

	c.fonts = NewFontSelector(cfg.Fonts)
	c.raster = NewRasterizer(c.renderer, cfg.Width, cfg.Height, cfg.BackgroundColor, cfg.Color)
	c.pipeline = NewPipeline(cfg)
	return c, nil
}

// Config 返回生效的配置
func (c *Captcha) Config() Config {
	return c.cfg
}

// Key 答案存储使用的 key
func (c *Captcha) Key() string {
	return c.key
}

// SetCode 使用调用方提供的验证码，跳过随机生成；空字符串等同 Reset
func (c *Captcha) SetCode(code string) {
	if code == "" {
		c.Reset()
		return
	}
	c.code = &Content{Type: TypeRandomCode, Text: code, Answer: code}
}

// Code 当前缓存的验证码，尚未生成时为空
func (c *Captcha) Code() string {
	if c.code == nil {
		return ""
	}
	return c.code.Text
}

// Reset 清除缓存的验证码
func (c *Captcha) Reset() {
	c.code = nil
}

// Generate 生成验证码图片并保存答案
// 任一步骤失败时不返回图片，也不保存答案
func (c *Captcha) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()

	content, err := c.nextContent()
	if err != nil {
		return nil, c.fail("generate content", err)
	}

	font, params, err := c.fonts.Select(c.rng, c.cfg.Font, c.glyphParams())
	if err != nil {
		return nil, c.fail("select font", err)
	}

	canvas, err := c.raster.Rasterize(c.rng, content.Text, font, params)
	if err != nil {
		return nil, c.fail("rasterize", err)
	}

	canvas, err = c.pipeline.Process(canvas)
	if err != nil {
		return nil, c.fail("distort", apperrors.Wrap(err, "apply distortion"))
	}

	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, canvas); err != nil {
		return nil, c.fail("encode", encodeError(err))
	}

	if err := c.store.Put(ctx, c.key, content.Answer); err != nil {
		return nil, c.fail("store answer", storeError(c.key, err))
	}

	c.logger.Debug("captcha generated",
		zap.String("type", string(content.Type)),
		zap.String("font", font),
		zap.Int("width", c.cfg.Width),
		zap.Strings("steps", c.pipeline.Steps()),
		zap.Duration("duration", time.Since(start)),
	)

	return &Result{
		Image:       buf.Bytes(),
		ContentType: c.encoder.ContentType(),
		Content:     content,
	}, nil
}

// RetrieveAnswer 读取并清除已保存的答案
func (c *Captcha) RetrieveAnswer(ctx context.Context) (string, bool, error) {
	answer, ok, err := c.store.TakeAndClear(ctx, c.key)
	if err != nil {
		return "", false, storeError(c.key, err)
	}
	return answer, ok, nil
}

// Verify 比对提交的答案，无论结果如何答案都会被清除
func (c *Captcha) Verify(ctx context.Context, submitted string) (bool, error) {
	answer, ok, err := c.RetrieveAnswer(ctx)
	if err != nil || !ok {
		return false, err
	}
	return MatchAnswer(answer, submitted), nil
}

// MatchAnswer 比对答案：两侧均为整数时按数值比较，否则按字符串精确比较
func MatchAnswer(expected, submitted string) bool {
	expected = strings.TrimSpace(expected)
	submitted = strings.TrimSpace(submitted)
	if expected == "" || submitted == "" {
		return false
	}
	if expected == submitted {
		return true
	}
	want, err1 := strconv.Atoi(expected)
	got, err2 := strconv.Atoi(submitted)
	return err1 == nil && err2 == nil && want == got
}

func (c *Captcha) nextContent() (Content, error) {
	if c.cfg.Type == TypeMath {
		return GenerateMathExpression(c.rng, c.cfg.MaxOperandValue, c.cfg.NumOperands)
	}
	if c.code != nil {
		return *c.code, nil
	}
	content, err := GenerateRandomCode(c.rng, c.cfg.Charset, c.cfg.CodeLength)
	if err != nil {
		return Content{}, err
	}
	c.code = &content
	return content, nil
}

func (c *Captcha) glyphParams() GlyphParams {
	return GlyphParams{
		Size:     c.cfg.FontSize,
		Rotation: c.cfg.Rotation,
		Spacing:  c.cfg.Spacing,
	}
}

func (c *Captcha) fail(stage string, err error) error {
	fields := []zap.Field{zap.String("stage", stage), zap.Error(err)}
	if appErr := apperrors.FromError(err); appErr != nil {
		fields = append(fields, zap.String("code", appErr.Code))
	}
	c.logger.Warn("captcha generation failed", fields...)
	return err
}
