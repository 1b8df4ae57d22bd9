package responder

import (
	"net/http"

	apperrors "github.com/leeforge/multicaptcha/errors"
)

// HTTP 状态码相关的错误码
const (
	// 4xxx - 客户端错误
	ErrCodeBadRequest       = 4000 // 请求格式错误
	ErrCodeBindFailed       = 4001 // 参数绑定错误
	ErrCodeValidationFailed = 4002 // 数据验证失败
	ErrCodeNotFound         = 4003 // 资源不存在
	ErrCodeRouteNotFound    = 4004 // 路由不存在
	ErrCodeTooManyRequests  = 4009 // 请求过于频繁
	ErrCodeInvalidConfig    = 4100 // 验证码参数非法
	ErrCodeUnknownFont      = 4101 // 字体未注册

	// 5xxx - 服务端错误
	ErrCodeInternalServer = 5000 // 内部服务器错误
	ErrCodeFontLoad       = 5100 // 字体加载失败
	ErrCodeEncode         = 5101 // 图片编码失败
	ErrCodeAnswerStore    = 5102 // 答案存储不可用
)

// 错误消息映射
var errorMessages = map[int]string{
	ErrCodeBadRequest:       "Bad Request",
	ErrCodeBindFailed:       "Invalid Request Body",
	ErrCodeValidationFailed: "Validation Failed",
	ErrCodeNotFound:         "Resource Not Found",
	ErrCodeRouteNotFound:    "Route Not Found",
	ErrCodeInvalidConfig:    "Invalid Captcha Configuration",
	ErrCodeUnknownFont:      "Unknown Font",
	ErrCodeTooManyRequests:  "Too Many Requests",
	ErrCodeInternalServer:   "Internal Server Error",
	ErrCodeFontLoad:         "Font Load Failed",
	ErrCodeEncode:           "Image Encode Failed",
	ErrCodeAnswerStore:      "Answer Store Unavailable",
}

// AppError.Code 到响应错误码
var appErrorCodes = map[string]int{
	apperrors.CodeInvalidConfiguration: ErrCodeInvalidConfig,
	apperrors.CodeUnknownFont:          ErrCodeUnknownFont,
	apperrors.CodeFontLoad:             ErrCodeFontLoad,
	apperrors.CodeEncode:               ErrCodeEncode,
	apperrors.CodeAnswerStore:          ErrCodeAnswerStore,
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

// NewError creates a new Error with code and message
func NewError(code int, message string) Error {
	return NewErrorWithDetails(code, message, nil)
}

// NewErrorWithDetails creates a new Error with code, message and details
func NewErrorWithDetails(code int, message string, details any) Error {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return Error{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// FromAppError 把 AppError 转成响应体和 HTTP 状态码。
// 5xx 只返回默认文案，内部原因留给日志。
func FromAppError(err error) (int, Error) {
	status := apperrors.StatusOf(err)
	appErr := apperrors.FromError(err)

	code, ok := appErrorCodes[appErr.Code]
	if !ok {
		code = ErrCodeInternalServer
		if status < http.StatusInternalServerError {
			code = ErrCodeBadRequest
		}
	}

	if status >= http.StatusInternalServerError {
		return status, NewError(code, "")
	}
	var details any
	if len(appErr.Details) > 0 {
		details = appErr.Details
	}
	return status, NewErrorWithDetails(code, appErr.Message, details)
}

// Predefined errors for common scenarios
var (
	ErrBadRequest      = NewError(ErrCodeBadRequest, "")
	ErrNotFound        = NewError(ErrCodeNotFound, "")
	ErrRouteNotFound   = NewError(ErrCodeRouteNotFound, "")
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "")
	ErrInternalServer  = NewError(ErrCodeInternalServer, "")
)
