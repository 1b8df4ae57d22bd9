package binding

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	validatorV10 "github.com/go-playground/validator/v10"
)

// 验证码提交体很小，超过即视为异常请求
const maxBodyBytes = 64 << 10

type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

// JSON 解码请求体并按 validate 标签校验
func JSON(r *http.Request, v any, opts ...Option) error {
	if r == nil || r.Body == nil {
		return &BindError{
			Type:    "bind_error",
			Message: "request body is empty",
		}
	}
	defer r.Body.Close()

	if err := decodeJson(io.LimitReader(r.Body, maxBodyBytes), v, opts...); err != nil {
		if errors.Is(err, io.EOF) {
			return &BindError{
				Type:    "bind_error",
				Message: "request body is empty",
			}
		}
		return &BindError{
			Type:    "json_error",
			Message: "failed to unmarshal JSON: " + err.Error(),
		}
	}

	if err := validator.Struct(v); err != nil {
		var validationErrors validatorV10.ValidationErrors
		if errors.As(err, &validationErrors) {
			var bindErrors ValidationErrors
			for _, ve := range validationErrors {
				bindErrors = append(bindErrors, BindError{
					Type:    "validation_error",
					Field:   ve.Field(),
					Message: getValidationMessage(ve),
				})
			}
			return bindErrors
		}
		return &BindError{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}

	return nil
}
