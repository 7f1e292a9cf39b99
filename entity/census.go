package entity

import (
	"time"

	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
)

// Census 某一时刻的人口活动统计
// 功能：统计全体及各区域处于各活动状态的人数、在家人数与阶梯退化次数
type Census struct {
	Time      time.Time
	Total     int
	Counts    map[activity.State]int
	Regions   map[string]*RegionCensus
	Fallbacks int64
}

// RegionCensus 单个区域的活动统计
type RegionCensus struct {
	Total  int
	Counts map[activity.State]int
	Home   int // 处于在家类活动的人数
}

// HomeShare 区域在家率：(在家类活动人数)/(区域总人数)，区域无人时为0
func (r *RegionCensus) HomeShare() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Home) / float64(r.Total)
}

// HomeShare 全体在家率
func (c *Census) HomeShare() float64 {
	home, total := 0, 0
	for _, r := range c.Regions {
		home += r.Home
		total += r.Total
	}
	if total == 0 {
		return 0
	}
	return float64(home) / float64(total)
}
