package captcha

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/multicaptcha/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 110, cfg.Width)
	assert.Equal(t, 35, cfg.Height)
	assert.Equal(t, 5, cfg.CodeLength)
	assert.Equal(t, RGB{255, 255, 255}, cfg.BackgroundColor)
	assert.Equal(t, RGB{0, 0, 255}, cfg.Color)
	assert.Equal(t, 8.0, cfg.Rotation.High())
	assert.Equal(t, -2, cfg.Spacing.Low())
	assert.True(t, cfg.FontSize.IsFixed())
	assert.Equal(t, "multi_captcha", cfg.SessionKey)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_NormalizeExcludesAndDedupes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Charset = "aabbccdd"
	cfg.ExcludeChars = "bd"
	cfg.NumOperands = 1
	cfg.BlurMode = ""

	n := cfg.Normalize()
	assert.Equal(t, "ac", n.Charset)
	assert.Empty(t, n.ExcludeChars)
	assert.Equal(t, 2, n.NumOperands)
	assert.Equal(t, BlurGaussian, n.BlurMode)
	assert.Equal(t, "aabbccdd", cfg.Charset, "Normalize must not mutate the receiver")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty after exclusions", func(c *Config) { c.Charset = "abc"; c.ExcludeChars = "cba" }, "Charset"},
		{"code longer than charset", func(c *Config) { c.Charset = "abcd"; c.CodeLength = 5 }, "CodeLength"},
		{"zero width", func(c *Config) { c.Width = 0 }, "Width"},
		{"no fonts", func(c *Config) { c.Fonts = map[string]FontSpec{} }, "Fonts"},
		{"unknown type", func(c *Config) { c.Type = "slider" }, "Type"},
		{"unknown blur", func(c *Config) { c.BlurMode = "box" }, "BlurMode"},
		{"wave without period", func(c *Config) { c.HorzPeriod = 0 }, "HorzPeriod"},
		{"zero max operand", func(c *Config) { c.MaxOperandValue = 0 }, "MaxOperandValue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.CodeInvalidConfiguration, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestConfig_MathIgnoresCodeLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Type = TypeMath
	cfg.Charset = "ab"
	cfg.CodeLength = 5
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WaveDisabledNeedsNoPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WaveEffect = false
	cfg.HorzPeriod = 0
	cfg.VertPeriod = 0
	assert.NoError(t, cfg.Validate())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeRandomCode, typ)

	typ, err = ParseType("math")
	require.NoError(t, err)
	assert.Equal(t, TypeMath, typ)

	_, err = ParseType("audio")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestRGB(t *testing.T) {
	c := RGB{1, 2, 3}.RGBA()
	assert.Equal(t, uint8(1), c.R)
	assert.Equal(t, uint8(3), c.B)
	assert.Equal(t, uint8(255), c.A)
}
