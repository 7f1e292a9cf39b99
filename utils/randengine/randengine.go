// 随机数引擎，包装了golang.org/x/exp/rand，为活动模拟提供可复现的随机数源
package randengine

import (
	"flag"

	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成功能，实现activity.RandomSource
// 说明：非线程安全。每个Person持有一个以种子+ID初始化的独立实例，并行步进时互不干扰、互不相关
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

var _ activity.RandomSource = (*Engine)(nil)

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下得到另一组可复现的序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Uniform 在[min, max)内均匀抽样
func (e *Engine) Uniform(min, max float64) float64 {
	return min + (max-min)*e.Float64()
}

// DiscreteDistribution 按给定权重抽取下标
// 功能：根据权重数组生成离散分布的随机下标
// 参数：weight-权重数组，每个元素表示对应下标的概率权重
// 返回：随机生成的下标（0到len(weight)-1）；权重为空或全为0时返回-1
// 算法说明：
// 1. 计算总权重并在[0, 总权重)内抽样
// 2. 累积权重，返回第一个累积值严格大于随机数的下标
// 3. 浮点误差导致未命中时返回最后一个正权重的下标
func (e *Engine) DiscreteDistribution(weight []float64) int {
	total := .0
	last := -1
	for i, w := range weight {
		total += w
		if w > 0 {
			last = i
		}
	}
	if last < 0 {
		return -1
	}
	random := total * e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	return last
}
