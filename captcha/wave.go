package captcha

import (
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// WaveStep 正弦波扭曲
// 在 2 倍分辨率下按 2 像素条带平移，再缩回原尺寸
type WaveStep struct {
	HorzAmplitude float64
	HorzPeriod    float64
	VertAmplitude float64
	VertPeriod    float64
}

func (WaveStep) Name() string { return "wave" }

// Apply 应用波浪效果，尺寸保持不变
func (s WaveStep) Apply(img *image.RGBA) (*image.RGBA, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return img, nil
	}
	big := toRGBA(resize.Resize(uint(2*w), uint(2*h), img, resize.Bilinear))
	bw, bh := big.Bounds().Dx(), big.Bounds().Dy()

	for i := 0; i < bw; i += 2 {
		dy := int(s.HorzAmplitude * math.Sin(float64(i)/s.HorzPeriod))
		copyBand(big, image.Rect(i, 0, i+2, bh), image.Pt(i-2, dy))
	}
	for j := 0; j < bh; j += 2 {
		dx := int(s.VertAmplitude * math.Sin(float64(j)/s.VertPeriod))
		copyBand(big, image.Rect(0, j, bw, j+2), image.Pt(dx, j-2))
	}

	return toRGBA(resize.Resize(uint(w), uint(h), big, resize.Bilinear)), nil
}

// copyBand 将 img 中的 src 区域复制到 dst 位置，越界部分被裁剪
func copyBand(img *image.RGBA, src image.Rectangle, dst image.Point) {
	r := image.Rectangle{Min: dst, Max: dst.Add(src.Size())}
	draw.Draw(img, r, img, src.Min, draw.Src)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
