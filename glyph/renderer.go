package glyph

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DefaultDPI converts point sizes to pixels.
const DefaultDPI = 96

// Spec describes one glyph to draw.
type Spec struct {
	Char rune
	Font string
	// Size in points.
	Size float64
	// Rotation in degrees, counter-clockwise.
	Rotation float64
	// Origin is the left end of the baseline.
	Origin image.Point
	Color  color.Color
}

// Renderer draws glyphs with gg on top of freetype faces.
type Renderer struct {
	loader *FontLoader
	dpi    float64
}

func NewRenderer(loader *FontLoader) *Renderer {
	return &Renderer{loader: loader, dpi: DefaultDPI}
}

// RenderGlyph draws spec.Char onto dst rotated about its origin and returns
// the axis-aligned bounds of the rotated glyph cell.
func (r *Renderer) RenderGlyph(dst *image.RGBA, spec Spec) (image.Rectangle, error) {
	f, err := r.loader.Load(spec.Font)
	if err != nil {
		return image.Rectangle{}, err
	}

	face := truetype.NewFace(f, &truetype.Options{
		Size:    spec.Size,
		DPI:     r.dpi,
		Hinting: font.HintingNone,
	})
	defer face.Close()

	x, y := float64(spec.Origin.X), float64(spec.Origin.Y)

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetColor(spec.Color)
	dc.RotateAbout(-gg.Radians(spec.Rotation), x, y)
	dc.DrawString(string(spec.Char), x, y)

	return rotatedCell(face, spec.Char, spec.Origin, spec.Rotation), nil
}

// rotatedCell rotates the glyph cell corners counter-clockwise about origin
// in y-down image space.
func rotatedCell(face font.Face, ch rune, origin image.Point, degrees float64) image.Rectangle {
	bounds, advance, _ := face.GlyphBounds(ch)

	left := math.Min(0, toFloat(bounds.Min.X))
	right := math.Max(toFloat(advance), toFloat(bounds.Max.X))
	top := toFloat(bounds.Min.Y)
	bottom := toFloat(bounds.Max.Y)

	sin, cos := math.Sincos(degrees * math.Pi / 180)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{left, top}, {right, top}, {right, bottom}, {left, bottom}} {
		px := float64(origin.X) + c[0]*cos + c[1]*sin
		py := float64(origin.Y) - c[0]*sin + c[1]*cos
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}

	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
