package captcha

import (
	"errors"
	"net/http"

	apperrors "github.com/leeforge/multicaptcha/errors"
	"github.com/leeforge/multicaptcha/glyph"
)

// CaptchaType 定义验证码类型
type CaptchaType string

const (
	TypeRandomCode CaptchaType = "code" // 随机字符
	TypeMath       CaptchaType = "math" // 数学运算
)

// Valid 是否为已知类型
func (t CaptchaType) Valid() bool {
	return t == TypeRandomCode || t == TypeMath
}

// ParseType 解析类型名，空字符串返回默认类型
func ParseType(s string) (CaptchaType, error) {
	if s == "" {
		return TypeRandomCode, nil
	}
	t := CaptchaType(s)
	if !t.Valid() {
		return "", invalidConfig("type", s, "must be one of code, math")
	}
	return t, nil
}

// Content 生成的验证码内容
type Content struct {
	Type   CaptchaType `json:"type"`
	Text   string      `json:"text"`   // 图片上显示的文本
	Answer string      `json:"answer"` // 存储并用于比对的答案
	Result int         `json:"result"` // 数学运算结果，随机字符类型为 0
}

// Result 一次生成的输出
type Result struct {
	Image       []byte
	ContentType string
	Content     Content
}

// 错误定义
var (
	ErrInvalidConfiguration = errors.New("invalid captcha configuration") // 配置无效
	ErrUnknownFont          = errors.New("unknown font")                  // 字体未注册
	ErrFontLoad             = glyph.ErrFontLoad                           // 字体加载失败
	ErrStore                = errors.New("answer store failed")           // 答案存储失败
)

func invalidConfig(field string, value any, reason string) error {
	return apperrors.NewInvalid(field, value, reason).WithInnerError(ErrInvalidConfiguration)
}

func unknownFont(name string) error {
	return apperrors.NewNotFound("font", name).
		WithCode(apperrors.CodeUnknownFont).
		WithInnerError(ErrUnknownFont)
}

func storeError(key string, cause error) error {
	return apperrors.NewExternal("persist captcha answer").
		WithCode(apperrors.CodeAnswerStore).
		WithDetail("key", key).
		WithInnerError(errors.Join(ErrStore, cause))
}

func encodeError(cause error) error {
	return apperrors.WrapWithType(cause, apperrors.ErrorTypeInternal, "encode captcha image").
		WithCode(apperrors.CodeEncode).
		WithHTTPStatus(http.StatusInternalServerError)
}
