package clock

import (
	"time"

	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
)

// Clock 仿真时钟管理器
// 功能：管理仿真系统的时间推进，将步数映射为日历时刻
// 说明：维护时间原点、步长与当前步数，提供时间格式化和RPC服务
type Clock struct {
	clockv1connect.UnimplementedClockServiceHandler

	Origin     time.Time     // 第0步对应的时刻
	DT         time.Duration // 每步时长
	START_STEP int32         // 起始步
	END_STEP   int32         // 结束步，模拟区间[START, END)

	InternalStep int32 // 当前步数
}

// New 根据配置创建新的时钟实例
// 功能：根据运行时配置初始化时钟信息
// 参数：rc-运行时配置，包含时间原点、步长、起始步与总步数
// 返回：初始化完成的时钟实例
func New(rc *config.RuntimeConfig) *Clock {
	step := rc.C.Step
	c := &Clock{
		Origin:     rc.Origin,
		DT:         rc.StepSize,
		START_STEP: step.Start,
		END_STEP:   step.Start + step.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.InternalStep = c.START_STEP
}

// Time 当前步对应的时刻
func (c *Clock) Time() time.Time {
	return c.Origin.Add(time.Duration(c.InternalStep) * c.DT)
}

// T 当前时刻距时间原点的秒数
func (c *Clock) T() float64 {
	return c.Time().Sub(c.Origin).Seconds()
}

// Advance 前进一步
func (c *Clock) Advance() {
	c.InternalStep++
}

// Done 是否已到达结束步
func (c *Clock) Done() bool {
	return c.InternalStep >= c.END_STEP
}

// String 获取时钟的字符串表示
// 返回：格式化的时间字符串（YYYY-MM-DD HH:MM:SS Weekday）
func (c *Clock) String() string {
	now := c.Time()
	return now.Format("2006-01-02 15:04:05") + " " + now.Weekday().String()
}

// GetHourMinuteSecond 获取当前时刻的小时、分钟、秒
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	now := c.Time()
	second := float64(now.Second()) + float64(now.Nanosecond())/1e9
	return now.Hour(), now.Minute(), second
}
