package captcha

import (
	"context"
	"errors"
	"image"
	"image/draw"

	"github.com/leeforge/multicaptcha/glyph"
)

// boxRenderer paints each glyph as a solid Size/2 x Size block standing on the baseline.
type boxRenderer struct {
	calls []glyph.Spec
	err   error
}

func (r *boxRenderer) RenderGlyph(dst *image.RGBA, spec glyph.Spec) (image.Rectangle, error) {
	if r.err != nil {
		return image.Rectangle{}, r.err
	}
	r.calls = append(r.calls, spec)
	box := image.Rect(spec.Origin.X, spec.Origin.Y-int(spec.Size), spec.Origin.X+int(spec.Size/2), spec.Origin.Y)
	draw.Draw(dst, box, image.NewUniform(spec.Color), image.Point{}, draw.Src)
	return box, nil
}

// scriptedRand replays fixed IntN results and records the bounds it was asked for.
type scriptedRand struct {
	ints  []int
	bound []int
}

func (s *scriptedRand) IntN(n int) int {
	s.bound = append(s.bound, n)
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		panic("scripted value out of range")
	}
	return v
}

func (s *scriptedRand) Float64() float64 { return 0 }

type failingStore struct {
	err error
}

func (f failingStore) Put(context.Context, string, string) error { return f.err }

func (f failingStore) TakeAndClear(context.Context, string) (string, bool, error) {
	return "", false, f.err
}

var errBackendDown = errors.New("backend down")

func uniform(w, h int, c RGB) *image.RGBA {
	return newFilled(image.Rect(0, 0, w, h), c.RGBA())
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.WaveEffect = false
	cfg.BlurEffect = false
	return cfg
}
