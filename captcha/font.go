package captcha

import "sort"

// GlyphParams 每个字符的随机参数范围
type GlyphParams struct {
	Size     Range[float64]
	Rotation Range[float64]
	Spacing  Range[int]
}

// FontSelector 字体选择器
type FontSelector struct {
	fonts map[string]FontSpec
	names []string
}

// NewFontSelector 创建字体选择器
func NewFontSelector(fonts map[string]FontSpec) *FontSelector {
	names := make([]string, 0, len(fonts))
	for name := range fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return &FontSelector{fonts: fonts, names: names}
}

// Names 已注册的字体名（有序）
func (s *FontSelector) Names() []string {
	return append([]string(nil), s.names...)
}

// Select 选择字体并应用其参数覆盖
// name 为空时随机选择
func (s *FontSelector) Select(rng Rand, name string, params GlyphParams) (string, GlyphParams, error) {
	if name == "" {
		if len(s.names) == 0 {
			return "", params, invalidConfig("Fonts", nil, "no fonts configured")
		}
		name = s.names[rng.IntN(len(s.names))]
	}

	spec, ok := s.fonts[name]
	if !ok {
		return "", params, unknownFont(name)
	}
	return name, spec.apply(params), nil
}

func (f FontSpec) apply(p GlyphParams) GlyphParams {
	if f.MinSize != nil {
		p.Size.SetMin(*f.MinSize)
	}
	if f.MaxSize != nil {
		p.Size.SetMax(*f.MaxSize)
	}
	if f.MinRotation != nil {
		p.Rotation.SetMin(*f.MinRotation)
	}
	if f.MaxRotation != nil {
		p.Rotation.SetMax(*f.MaxRotation)
	}
	if f.MinSpacing != nil {
		p.Spacing.SetMin(*f.MinSpacing)
	}
	if f.MaxSpacing != nil {
		p.Spacing.SetMax(*f.MaxSpacing)
	}
	return p
}
