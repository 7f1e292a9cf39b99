package activity

import (
	"math"
)

// Tolerance 每个起始状态出边概率之和与1的允许误差
const Tolerance = 1e-6

// Transition 一条状态转移及其概率
type Transition struct {
	From State
	To   State
	P    float64
}

// Chain 离散时间马尔可夫转移表
// 功能：保存(起始状态, 目标状态)->概率的映射，构建后不可修改
// 说明：同一起始状态下的候选目标按声明顺序排列，该顺序即累积概率阶梯的顺序
type Chain struct {
	rows   map[State][]Transition // 起始状态 -> 按声明顺序的出边
	states []State                // 按首次出现顺序的全部状态
}

// NewChain 构建转移链
// 功能：校验并构建不可变的转移链
// 参数：transitions-转移列表，声明顺序决定抽样阶梯顺序
// 返回：转移链；不合法时返回ConfigurationError
// 算法说明：
// 1. 检查标签非空、概率有限且位于[0,1]、(起点,终点)不重复
// 2. 按起始状态分组，保留声明顺序
// 3. 检查每个起始状态的出边概率和为1（误差Tolerance）
func NewChain(transitions []Transition) (*Chain, error) {
	if len(transitions) == 0 {
		return nil, configErrorf("empty transition chain")
	}
	c := &Chain{rows: make(map[State][]Transition)}
	seen := make(map[[2]State]struct{}, len(transitions))
	known := make(map[State]struct{})
	addState := func(s State) {
		if _, ok := known[s]; !ok {
			known[s] = struct{}{}
			c.states = append(c.states, s)
		}
	}
	for _, t := range transitions {
		if t.From == "" || t.To == "" {
			return nil, configErrorf("transition %q->%q has an empty state label", t.From, t.To)
		}
		if math.IsNaN(t.P) || t.P < 0 || t.P > 1 {
			return nil, configErrorf("transition %s->%s has probability %v outside [0, 1]", t.From, t.To, t.P)
		}
		pair := [2]State{t.From, t.To}
		if _, ok := seen[pair]; ok {
			return nil, configErrorf("duplicated transition %s->%s", t.From, t.To)
		}
		seen[pair] = struct{}{}
		addState(t.From)
		addState(t.To)
		c.rows[t.From] = append(c.rows[t.From], t)
	}
	for _, from := range c.states {
		row, ok := c.rows[from]
		if !ok {
			continue
		}
		sum := 0.
		for _, t := range row {
			sum += t.P
		}
		if math.Abs(sum-1) > Tolerance {
			return nil, configErrorf("outgoing probabilities of %s sum to %v, want 1", from, sum)
		}
	}
	return c, nil
}

// MustNewChain 同NewChain，出错时panic，仅用于静态构造
func MustNewChain(transitions []Transition) *Chain {
	c, err := NewChain(transitions)
	if err != nil {
		panic(err)
	}
	return c
}

// States 返回链中出现过的全部状态（首次出现顺序）
func (c *Chain) States() []State {
	return append([]State(nil), c.states...)
}

// HasRow 起始状态是否存在出边
func (c *Chain) HasRow(from State) bool {
	_, ok := c.rows[from]
	return ok
}

// P 返回from->to的概率，不存在时为0
func (c *Chain) P(from, to State) float64 {
	for _, t := range c.rows[from] {
		if t.To == to {
			return t.P
		}
	}
	return 0
}

// Successors 返回起始状态的出边（阶梯顺序的副本）
func (c *Chain) Successors(from State) []Transition {
	return append([]Transition(nil), c.rows[from]...)
}

// Next 按累积概率阶梯选择下一个状态
// 功能：给定当前状态和[0,1)内的随机数，确定性地选出下一个状态
// 参数：from-当前状态，r-随机数
// 返回：下一个状态；fallback表示阶梯末端仍未超过r而退化为最后一个候选；错误
// 算法说明：
// 1. 取出from的候选目标（声明顺序）
// 2. 依次累加概率，返回第一个累积值严格大于r的目标
// 3. 若因浮点误差全部不超过r，则返回最后一个候选并标记fallback
func (c *Chain) Next(from State, r float64) (to State, fallback bool, err error) {
	row, ok := c.rows[from]
	if !ok {
		return "", false, configErrorf("no transitions from state %s", from)
	}
	sum := 0.
	for _, t := range row {
		sum += t.P
		if sum > r {
			return t.To, false, nil
		}
	}
	return row[len(row)-1].To, true, nil
}
