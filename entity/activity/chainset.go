package activity

import (
	"time"
)

// Selector 转移链选择器
// 功能：给定时间戳返回该时刻适用的转移链
type Selector interface {
	Select(t time.Time) (*Chain, error)
}

// ChainSet 活动转移链集合
// 功能：覆盖工作日、周末各24小时的(日类型,小时)->转移链映射
// 说明：构建后只读，可被任意多个Person共享，无需加锁
type ChainSet struct {
	name   string
	chains [numDayTypes][HoursPerDay]*Chain
	states []State
}

var _ Selector = (*ChainSet)(nil)

// Name 集合名
func (s *ChainSet) Name() string {
	return s.name
}

// States 集合中所有链出现过的状态（首次出现顺序）
func (s *ChainSet) States() []State {
	return append([]State(nil), s.states...)
}

// Chain 按上下文键查找转移链
func (s *ChainSet) Chain(k Key) (*Chain, error) {
	if !k.valid() {
		return nil, configErrorf("chain set %q: invalid key %v", s.name, k)
	}
	c := s.chains[k.DayType][k.Hour]
	if c == nil {
		return nil, configErrorf("chain set %q: no chain for %v", s.name, k)
	}
	return c, nil
}

// Select 返回时间戳t适用的转移链
// 功能：周六、周日使用周末链，否则使用工作日链；小时取t所在时区的整点（截断分秒）
// 参数：t-时间戳
// 返回：转移链；完整构建的集合不会出错，出错即说明配置有缺陷
func (s *ChainSet) Select(t time.Time) (*Chain, error) {
	return s.Chain(KeyOf(t))
}

// ChainSetBuilder 链集合构建器
type ChainSetBuilder struct {
	name   string
	chains [numDayTypes][HoursPerDay]*Chain
	err    error
}

// NewChainSetBuilder 创建链集合构建器
func NewChainSetBuilder(name string) *ChainSetBuilder {
	return &ChainSetBuilder{name: name}
}

// Set 为单个(日类型,小时)设置转移链，重复设置时后者覆盖前者
func (b *ChainSetBuilder) Set(d DayType, hour int, c *Chain) *ChainSetBuilder {
	return b.SetHours(d, hour, hour+1, c)
}

// SetHours 为[fromHour, toHour)区间内的每个小时设置同一条转移链
func (b *ChainSetBuilder) SetHours(d DayType, fromHour, toHour int, c *Chain) *ChainSetBuilder {
	if b.err != nil {
		return b
	}
	if c == nil {
		b.err = configErrorf("chain set %q: nil chain for %v hours [%d, %d)", b.name, d, fromHour, toHour)
		return b
	}
	if d < 0 || d >= numDayTypes || fromHour < 0 || toHour > HoursPerDay || fromHour >= toHour {
		b.err = configErrorf("chain set %q: invalid range %v hours [%d, %d)", b.name, d, fromHour, toHour)
		return b
	}
	for h := fromHour; h < toHour; h++ {
		b.chains[d][h] = c
	}
	return b
}

// Build 校验并生成链集合
// 功能：检查48个(日类型,小时)条目齐全，且状态闭合
// 返回：链集合；不合法时返回ConfigurationError
// 算法说明：
// 1. 任一条目缺失则报错
// 2. 收集集合内所有链出现过的状态
// 3. 每条链都必须包含每个状态的出边，保证任意时刻的任意状态都能继续转移
//
// 说明：闭合校验比"条目齐全"更严格，某状态在部分时段实际不可达时，
// 只要该时段的链缺少它的出边，集合同样会被拒绝
func (b *ChainSetBuilder) Build() (*ChainSet, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := &ChainSet{name: b.name, chains: b.chains}
	known := make(map[State]struct{})
	for d := DayType(0); d < numDayTypes; d++ {
		for h := 0; h < HoursPerDay; h++ {
			c := s.chains[d][h]
			if c == nil {
				return nil, configErrorf("chain set %q: no chain for %v", b.name, Key{DayType: d, Hour: h})
			}
			for _, st := range c.states {
				if _, ok := known[st]; !ok {
					known[st] = struct{}{}
					s.states = append(s.states, st)
				}
			}
		}
	}
	for d := DayType(0); d < numDayTypes; d++ {
		for h := 0; h < HoursPerDay; h++ {
			for _, st := range s.states {
				if !s.chains[d][h].HasRow(st) {
					return nil, configErrorf("chain set %q: chain for %v has no transitions from state %s",
						b.name, Key{DayType: d, Hour: h}, st)
				}
			}
		}
	}
	log.Debugf("chain set %q built, states: %v", s.name, s.states)
	return s, nil
}
