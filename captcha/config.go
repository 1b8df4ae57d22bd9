package captcha

import (
	"errors"
	"image/color"
	"strings"

	validatorV10 "github.com/go-playground/validator/v10"
)

// 字符集常量
const (
	CharsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	CharsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetNumbers   = "123456789"
)

// BlurMode 模糊算法
type BlurMode string

const (
	BlurGaussian BlurMode = "gaussian" // 3x3 高斯卷积
	BlurMerge    BlurMode = "merge"    // 四向半透明叠加
)

// RGB 颜色
type RGB [3]uint8

// RGBA 转换为不透明颜色
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
}

// FontSpec 字体参数覆盖，仅应用已设置的字段
type FontSpec struct {
	MinSize     *float64 `mapstructure:"min_size" yaml:"min_size,omitempty" json:"min_size,omitempty"`
	MaxSize     *float64 `mapstructure:"max_size" yaml:"max_size,omitempty" json:"max_size,omitempty"`
	MinRotation *float64 `mapstructure:"min_rotation" yaml:"min_rotation,omitempty" json:"min_rotation,omitempty"`
	MaxRotation *float64 `mapstructure:"max_rotation" yaml:"max_rotation,omitempty" json:"max_rotation,omitempty"`
	MinSpacing  *int     `mapstructure:"min_spacing" yaml:"min_spacing,omitempty" json:"min_spacing,omitempty"`
	MaxSpacing  *int     `mapstructure:"max_spacing" yaml:"max_spacing,omitempty" json:"max_spacing,omitempty"`
}

// Config 验证码配置
type Config struct {
	Type       CaptchaType `mapstructure:"type" yaml:"type" json:"type" validate:"oneof=code math"`
	Width      int         `mapstructure:"width" yaml:"width" json:"width" validate:"gt=0"`
	Height     int         `mapstructure:"height" yaml:"height" json:"height" validate:"gt=0"`
	CodeLength int         `mapstructure:"code_length" yaml:"code_length" json:"code_length" validate:"gte=1"`

	Charset      string `mapstructure:"charset" yaml:"charset" json:"charset"`
	ExcludeChars string `mapstructure:"exclude_chars" yaml:"exclude_chars" json:"exclude_chars"`

	BackgroundColor RGB `mapstructure:"background_color" yaml:"background_color" json:"background_color"`
	Color           RGB `mapstructure:"color" yaml:"color" json:"color"`

	// 字符旋转角度（度，逆时针为正）
	Rotation Range[float64] `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
	// 字符间距（像素）
	Spacing Range[int] `mapstructure:"spacing" yaml:"spacing" json:"spacing"`
	// 字号（磅）
	FontSize Range[float64] `mapstructure:"font_size" yaml:"font_size" json:"font_size"`

	WaveEffect    bool    `mapstructure:"wave_effect" yaml:"wave_effect" json:"wave_effect"`
	HorzAmplitude float64 `mapstructure:"horz_amplitude" yaml:"horz_amplitude" json:"horz_amplitude"`
	HorzPeriod    float64 `mapstructure:"horz_period" yaml:"horz_period" json:"horz_period" validate:"required_if=WaveEffect true"`
	VertAmplitude float64 `mapstructure:"vert_amplitude" yaml:"vert_amplitude" json:"vert_amplitude"`
	VertPeriod    float64 `mapstructure:"vert_period" yaml:"vert_period" json:"vert_period" validate:"required_if=WaveEffect true"`

	BlurEffect bool     `mapstructure:"blur_effect" yaml:"blur_effect" json:"blur_effect"`
	BlurMode   BlurMode `mapstructure:"blur_mode" yaml:"blur_mode" json:"blur_mode" validate:"omitempty,oneof=gaussian merge"`

	// Fonts 可用字体及其参数覆盖
	Fonts map[string]FontSpec `mapstructure:"fonts" yaml:"fonts" json:"fonts" validate:"min=1"`
	// Font 固定使用的字体，为空时随机选择
	Font       string `mapstructure:"font" yaml:"font" json:"font"`
	AssetsPath string `mapstructure:"assets_path" yaml:"assets_path" json:"assets_path"`
	SessionKey string `mapstructure:"session_key" yaml:"session_key" json:"session_key" validate:"required"`

	MaxOperandValue int `mapstructure:"max_operand_value" yaml:"max_operand_value" json:"max_operand_value" validate:"gte=1"`
	NumOperands     int `mapstructure:"num_operands" yaml:"num_operands" json:"num_operands"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Type:            TypeRandomCode,
		Width:           110,
		Height:          35,
		CodeLength:      5,
		Charset:         CharsetLowercase,
		BackgroundColor: RGB{255, 255, 255},
		Color:           RGB{0, 0, 255},
		Rotation:        Fixed(8.0),
		Spacing:         Fixed(-2),
		FontSize:        Fixed(19.0),
		WaveEffect:      true,
		HorzAmplitude:   4,
		HorzPeriod:      16,
		VertAmplitude:   3.5,
		VertPeriod:      8,
		BlurEffect:      true,
		BlurMode:        BlurGaussian,
		Fonts:           map[string]FontSpec{"gobold": {}},
		AssetsPath:      "assets",
		SessionKey:      "multi_captcha",
		MaxOperandValue: 9,
		NumOperands:     3,
	}
}

// Normalize 应用字符排除并修正可修正的取值
func (c Config) Normalize() Config {
	c.Charset = EffectiveCharset(c.Charset, c.ExcludeChars)
	c.ExcludeChars = ""
	if c.Type == "" {
		c.Type = TypeRandomCode
	}
	if c.BlurMode == "" {
		c.BlurMode = BlurGaussian
	}
	if c.NumOperands < 2 {
		c.NumOperands = 2
	}
	return c
}

var validate = validatorV10.New()

// Validate 校验配置
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validatorV10.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return invalidConfig(fe.Field(), fe.Value(), validationMessage(fe))
		}
		return invalidConfig("config", nil, err.Error())
	}

	charset := []rune(EffectiveCharset(c.Charset, c.ExcludeChars))
	if len(charset) == 0 {
		return invalidConfig("Charset", c.Charset, "is empty after exclusions")
	}
	if c.Type == TypeRandomCode && c.CodeLength > len(charset) {
		return invalidConfig("CodeLength", c.CodeLength, "exceeds the number of distinct charset characters")
	}
	return nil
}

// EffectiveCharset 去除排除字符与重复字符后的字符集
func EffectiveCharset(charset, exclude string) string {
	var b strings.Builder
	seen := make(map[rune]struct{}, len(charset))
	for _, r := range charset {
		if strings.ContainsRune(exclude, r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		b.WriteRune(r)
	}
	return b.String()
}

func validationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation for tag '" + fe.Tag() + "'"
	}
}
