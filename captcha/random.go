package captcha

import (
	"math/rand/v2"
	"time"
)

// Rand 随机数来源
// *rand.Rand 满足该接口，测试中使用固定种子
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand 以当前时间为种子创建随机源
func NewRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return NewSeededRand(seed)
}

// NewSeededRand 创建可复现的随机源
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
