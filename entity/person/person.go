package person

import (
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
)

// Person 人员实体
// 功能：持有单个人的当前活动状态与时间游标，按转移链随机推进活动状态
// 说明：可变状态（活动、时刻）由自身独占，转移链集合为只读共享；
// 不同Person的Step互不影响，可以在多个协程间并行调用
type Person struct {
	// 静态属性
	id         int32
	dwellingID int32
	region     string

	selector  activity.Selector     // 转移链选择器（共享只读）
	generator activity.RandomSource // 随机数源（独占）
	dt        time.Duration         // 步长

	// 运行时数据
	activity  activity.State // 当前活动
	t         time.Time      // 当前时刻
	fallbacks int64          // 累积概率阶梯退化次数
}

// New 创建人员
// 功能：以初始活动、初始时刻与固定步长创建一个可独立步进的人员
// 参数：selector-转移链选择器，generator-随机数源，initial-初始活动，initialTime-初始时刻，step-步长
// 返回：人员；参数不合法或初始活动在初始时刻的链中没有出边时返回ConfigurationError
func New(
	selector activity.Selector,
	generator activity.RandomSource,
	initial activity.State,
	initialTime time.Time,
	step time.Duration,
) (*Person, error) {
	if selector == nil {
		return nil, &activity.ConfigurationError{Reason: "nil chain selector"}
	}
	if generator == nil {
		return nil, &activity.ConfigurationError{Reason: "nil random source"}
	}
	if step <= 0 {
		return nil, &activity.ConfigurationError{Reason: fmt.Sprintf("time step size must be positive, got %v", step)}
	}
	c, err := selector.Select(initialTime)
	if err != nil {
		return nil, err
	}
	if !c.HasRow(initial) {
		return nil, &activity.ConfigurationError{Reason: fmt.Sprintf("unknown initial activity %q", initial)}
	}
	return &Person{
		selector:  selector,
		generator: generator,
		dt:        step,
		activity:  initial,
		t:         initialTime,
	}, nil
}

// Step 前进一步
// 功能：按当前时刻适用的转移链抽样下一个活动，并推进时间游标
// 返回：错误（缺少转移链为ConfigurationError，随机数越界为RandomSourceError），出错时状态不变
// 算法说明：
// 1. 使用推进前的时刻选择转移链
// 2. 从随机数源抽取[0,1)内的r并校验
// 3. 在当前活动的累积概率阶梯上选出第一个累积值严格大于r的目标；未命中时退化为最后一个候选并计数
// 4. 更新活动，时刻前进一个步长
func (p *Person) Step() error {
	c, err := p.selector.Select(p.t)
	if err != nil {
		return err
	}
	r := p.generator.Uniform(0, 1)
	if err := activity.ValidateDraw(r); err != nil {
		return err
	}
	next, fallback, err := c.Next(p.activity, r)
	if err != nil {
		return err
	}
	if fallback {
		p.fallbacks++
		log.Warnf("person %d: cumulative ladder of %s at %v never exceeded %v, fall back to %s",
			p.id, p.activity, p.t, r, next)
	}
	p.activity = next
	p.t = p.t.Add(p.dt)
	return nil
}

func (p *Person) ID() int32 {
	return p.id
}

func (p *Person) DwellingID() int32 {
	return p.dwellingID
}

func (p *Person) Region() string {
	return p.region
}

func (p *Person) Activity() activity.State {
	return p.activity
}

func (p *Person) Time() time.Time {
	return p.t
}

func (p *Person) Fallbacks() int64 {
	return p.fallbacks
}
