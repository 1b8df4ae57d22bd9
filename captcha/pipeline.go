package captcha

import (
	"fmt"
	"image"
)

// Pipeline 按顺序执行的图像处理管道
type Pipeline struct {
	steps []Step
}

// NewPipeline 根据配置创建处理管道：先波浪，后模糊
func NewPipeline(cfg Config) *Pipeline {
	steps := []Step{}

	if cfg.WaveEffect {
		steps = append(steps, WaveStep{
			HorzAmplitude: cfg.HorzAmplitude,
			HorzPeriod:    cfg.HorzPeriod,
			VertAmplitude: cfg.VertAmplitude,
			VertPeriod:    cfg.VertPeriod,
		})
	}

	if cfg.BlurEffect {
		steps = append(steps, BlurStep{Mode: cfg.BlurMode})
	}

	return &Pipeline{steps: steps}
}

// Steps 返回步骤名称
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}

// Process 依次执行所有步骤
func (p *Pipeline) Process(img *image.RGBA) (*image.RGBA, error) {
	var err error
	for _, step := range p.steps {
		img, err = step.Apply(img)
		if err != nil {
			return nil, fmt.Errorf("%s step failed: %w", step.Name(), err)
		}
	}
	return img, nil
}
