package captcha

import (
	"image"
	"image/png"
	"io"
)

// PNGEncoder 无损 PNG 编码器
type PNGEncoder struct{}

func (PNGEncoder) Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func (PNGEncoder) ContentType() string {
	return "image/png"
}
