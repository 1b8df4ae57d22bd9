package captcha

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"unicode/utf8"

	"github.com/leeforge/multicaptcha/glyph"
)

const textPadding = 5

// Rasterizer 将文本逐字符绘制到画布并水平居中
type Rasterizer struct {
	renderer GlyphRenderer
	width    int
	height   int
	bg       color.RGBA
	fg       color.RGBA
}

// NewRasterizer 创建光栅化器
func NewRasterizer(renderer GlyphRenderer, width, height int, bg, fg RGB) *Rasterizer {
	return &Rasterizer{
		renderer: renderer,
		width:    width,
		height:   height,
		bg:       bg.RGBA(),
		fg:       fg.RGBA(),
	}
}

// Rasterize 绘制文本，返回新画布
func (r *Rasterizer) Rasterize(rng Rand, text, font string, params GlyphParams) (*image.RGBA, error) {
	bounds := image.Rect(0, 0, r.width, r.height)
	// 工作区需容纳整条文本，超宽时居中裁剪才能取到中间部分
	work := newFilled(image.Rect(0, 0, r.workWidth(text, params), r.height), r.bg)

	// 基线位于 70% 高度，按整数运算避免 0.7 的浮点误差
	baseline := int(math.Round(float64(r.height*70) / 100))
	cursor := textPadding
	for _, ch := range text {
		box, err := r.renderer.RenderGlyph(work, glyph.Spec{
			Char:     ch,
			Font:     font,
			Size:     params.Size.Sample(rng),
			Rotation: params.Rotation.Sample(rng),
			Origin:   image.Pt(cursor, baseline),
			Color:    r.fg,
		})
		if err != nil {
			return nil, err
		}
		cursor += box.Max.X - cursor + params.Spacing.Sample(rng)
	}
	textWidth := cursor + textPadding

	canvas := newFilled(bounds, r.bg)
	destX := (r.width - textWidth) / 2
	strip := image.Rect(destX, 0, destX+textWidth, r.height)
	draw.Draw(canvas, strip, work, image.Point{}, draw.Src)
	return canvas, nil
}

// workWidth 估算文本条的最大宽度：旋转后的字形框不超过字号像素的两倍
func (r *Rasterizer) workWidth(text string, params GlyphParams) int {
	glyphPx := int(math.Ceil(2*params.Size.High()*glyph.DefaultDPI/72)) + max(params.Spacing.High(), 0)
	return r.width + utf8.RuneCountInString(text)*glyphPx + 2*textPadding
}

func newFilled(bounds image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
