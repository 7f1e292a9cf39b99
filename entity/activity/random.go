package activity

// RandomSource 随机数源
// 功能：在[min, max)内产生均匀分布的随机数
// 说明：以接口注入，测试中可替换为返回固定值的桩；并行步进时每个Person应持有独立实例
type RandomSource interface {
	Uniform(min, max float64) float64
}

// RandomSourceFunc 函数形式的随机数源
type RandomSourceFunc func(min, max float64) float64

func (f RandomSourceFunc) Uniform(min, max float64) float64 {
	return f(min, max)
}

// ValidateDraw 检查抽样值是否位于[0,1)
func ValidateDraw(r float64) error {
	if !(r >= 0 && r < 1) {
		return &RandomSourceError{Value: r}
	}
	return nil
}
