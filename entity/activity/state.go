package activity

import (
	"fmt"
	"strings"
	"time"
)

// State 活动状态标签（如sleep、work、home、not_at_home）
// 说明：合法标签集合由配置决定，引擎本身不做限定
type State string

// DayType 日类型
type DayType int

const (
	Weekday DayType = iota // 工作日
	Weekend                // 周末

	numDayTypes = 2
)

const HoursPerDay = 24

func (d DayType) String() string {
	switch d {
	case Weekday:
		return "weekday"
	case Weekend:
		return "weekend"
	default:
		return fmt.Sprintf("DayType(%d)", int(d))
	}
}

// ParseDayType 从配置字符串解析日类型（大小写不敏感）
func ParseDayType(s string) (DayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekday":
		return Weekday, nil
	case "weekend":
		return Weekend, nil
	default:
		return 0, configErrorf("unknown day type %q", s)
	}
}

// DayTypeOf 周六、周日为周末，其余为工作日
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// Key 转移链的上下文键：日类型×小时
type Key struct {
	DayType DayType
	Hour    int // 0-23
}

// KeyOf 计算时间戳对应的上下文键
// 功能：按时间戳所在时区判断日类型，并截断到小时
// 参数：t-时间戳
// 返回：上下文键
func KeyOf(t time.Time) Key {
	return Key{DayType: DayTypeOf(t), Hour: t.Hour()}
}

func (k Key) String() string {
	return fmt.Sprintf("%v/%02d", k.DayType, k.Hour)
}

func (k Key) valid() bool {
	return k.DayType >= 0 && k.DayType < numDayTypes && k.Hour >= 0 && k.Hour < HoursPerDay
}
