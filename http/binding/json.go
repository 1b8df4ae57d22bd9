package binding

import (
	"io"

	"github.com/leeforge/multicaptcha/json"
)

// DecodeOptions JSON 解码选项配置
type DecodeOptions struct {
	// DisallowUnknownFields 不允许 JSON 中包含未知字段
	disallowUnknownFields bool
}

// Option 解码选项函数类型
type Option func(*DecodeOptions)

// WithDisallowUnknownFields 不允许 JSON 中包含结构体未定义的字段
func WithDisallowUnknownFields() Option {
	return func(opts *DecodeOptions) {
		opts.disallowUnknownFields = true
	}
}

func applyDecodeOptions(opts ...Option) *DecodeOptions {
	options := &DecodeOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func decodeJson(r io.Reader, v any, opts ...Option) error {
	options := applyDecodeOptions(opts...)

	decoder := json.NewDecoder(r)
	if options.disallowUnknownFields {
		decoder.DisallowUnknownFields()
	}

	return decoder.Decode(v)
}
