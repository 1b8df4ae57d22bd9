package captcha

import (
	"image"

	"github.com/disintegration/imaging"
)

const mergeOpacity = 60

var gaussianKernel = [9]float64{
	1, 2, 1,
	2, 4, 2,
	1, 2, 1,
}

// BlurStep 模糊处理
type BlurStep struct {
	Mode BlurMode
}

func (BlurStep) Name() string { return "blur" }

// Apply 按模式应用模糊
func (s BlurStep) Apply(img *image.RGBA) (*image.RGBA, error) {
	if s.Mode == BlurMerge {
		return mergeBlur(img), nil
	}
	blurred := imaging.Convolve3x3(img, gaussianKernel, &imaging.ConvolveOptions{Normalize: true})
	return toRGBA(blurred), nil
}

// mergeBlur 以 1 像素偏移、60% 不透明度做四次叠加
func mergeBlur(live *image.RGBA) *image.RGBA {
	b := live.Bounds()
	w, h := b.Dx(), b.Dy()
	dup := image.NewRGBA(b)
	copy(dup.Pix, live.Pix)

	copyMerge(dup, live, image.Pt(0, 0), image.Pt(0, 1), w-1, h-1, mergeOpacity)
	copyMerge(live, dup, image.Pt(0, 0), image.Pt(1, 0), w-1, h, mergeOpacity)
	copyMerge(dup, live, image.Pt(0, 1), image.Pt(0, 0), w, h, mergeOpacity)
	copyMerge(live, dup, image.Pt(1, 0), image.Pt(0, 0), w, h, mergeOpacity)
	return live
}

// copyMerge 将 src 中 (sp, w, h) 区域按 pct% 混合到 dst 的 dp 处
// 每通道 dst = int(src*pct/100 + dst*(100-pct)/100)，越界像素跳过
func copyMerge(dst, src *image.RGBA, dp, sp image.Point, w, h, pct int) {
	sa := float64(pct) / 100
	da := float64(100-pct) / 100
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := image.Pt(sp.X+x, sp.Y+y)
			d := image.Pt(dp.X+x, dp.Y+y)
			if !s.In(src.Rect) || !d.In(dst.Rect) {
				continue
			}
			si := src.PixOffset(s.X, s.Y)
			di := dst.PixOffset(d.X, d.Y)
			for c := 0; c < 3; c++ {
				dst.Pix[di+c] = uint8(float64(float64(src.Pix[si+c])*sa) + float64(float64(dst.Pix[di+c])*da))
			}
		}
	}
}
