package captcha

import (
	"context"
	"image"
	"io"

	"github.com/leeforge/multicaptcha/glyph"
)

// AnswerStore 保存验证码答案
// 每个 key 只有一个槽位，后写覆盖，读取即清除
type AnswerStore interface {
	// Put 保存答案
	Put(ctx context.Context, key, answer string) error

	// TakeAndClear 读取并清除答案
	// 不存在时 ok 为 false
	TakeAndClear(ctx context.Context, key string) (answer string, ok bool, err error)
}

// GlyphRenderer 在画布上绘制单个字符
type GlyphRenderer interface {
	// RenderGlyph 返回旋转后字符单元的外接矩形
	RenderGlyph(dst *image.RGBA, spec glyph.Spec) (image.Rectangle, error)
}

// Encoder 图片编码器
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	ContentType() string
}

// Step 图像处理步骤
type Step interface {
	Name() string
	Apply(img *image.RGBA) (*image.RGBA, error)
}
