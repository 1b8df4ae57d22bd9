package captcha

import "math"

// Number 可随机取值的数值类型
type Number interface {
	int | float64
}

// Range 数值范围
// Max 为 nil 时表示固定值（max = min）
type Range[T Number] struct {
	Min T  `mapstructure:"min" yaml:"min" json:"min"`
	Max *T `mapstructure:"max" yaml:"max,omitempty" json:"max,omitempty"`
}

// Fixed 创建固定值范围
func Fixed[T Number](v T) Range[T] {
	return Range[T]{Min: v}
}

// Between 创建区间范围，顺序颠倒时自动交换
func Between[T Number](lo, hi T) Range[T] {
	var r Range[T]
	r.SetBounds(lo, hi)
	return r
}

// SetFixed 设置为固定值
func (r *Range[T]) SetFixed(v T) {
	r.Min = v
	r.Max = nil
}

// SetBounds 设置上下界
func (r *Range[T]) SetBounds(lo, hi T) {
	if lo == hi {
		r.SetFixed(lo)
		return
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	r.Min = lo
	r.Max = &hi
}

// SetMin 仅覆盖下界
func (r *Range[T]) SetMin(v T) {
	r.Min = v
}

// SetMax 仅覆盖上界
func (r *Range[T]) SetMax(v T) {
	r.Max = &v
}

// IsFixed 是否为固定值
func (r Range[T]) IsFixed() bool {
	lo, hi := r.Bounds()
	return lo == hi
}

// Bounds 返回生效的上下界
func (r Range[T]) Bounds() (T, T) {
	if r.Max == nil {
		return r.Min, r.Min
	}
	return min(r.Min, *r.Max), max(r.Min, *r.Max)
}

// Low 生效下界
func (r Range[T]) Low() T {
	lo, _ := r.Bounds()
	return lo
}

// High 生效上界
func (r Range[T]) High() T {
	_, hi := r.Bounds()
	return hi
}

// Sample 在 [min, max] 内均匀取值
func (r Range[T]) Sample(rng Rand) T {
	lo, hi := r.Bounds()
	if lo == hi {
		return lo
	}
	switch any(lo).(type) {
	case int:
		return lo + T(rng.IntN(int(hi-lo)+1))
	default:
		// Float64 取 [0,1)，上界放宽一个 ulp 使 max 可取到
		v := float64(lo) + rng.Float64()*(math.Nextafter(float64(hi), math.Inf(1))-float64(lo))
		return T(min(v, float64(hi)))
	}
}
