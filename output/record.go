package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
)

// 输出表名，与结果分析脚本读取的表保持一致
const (
	TablePeople         = "people"
	TableDwellings      = "dwellings"
	TableActivity       = "activity"
	TableActivityCounts = "activityCounts"
)

// Record activity表的一行：某人在某时刻的活动
type Record struct {
	Timestamp int64 // Unix毫秒
	PersonID  int32
	Activity  activity.State
}

// AggregateRecord activityCounts表的一行：某区域在某时刻各活动的人数
type AggregateRecord struct {
	Timestamp int64 // Unix毫秒
	Region    string
	Counts    map[activity.State]int
}

// Value 按{A=1, B=2}格式输出的聚合值
func (r AggregateRecord) Value() string {
	return FormatCounts(r.Counts)
}

// PersonRow people表的一行
type PersonRow struct {
	ID         int32
	DwellingID int32
}

// DwellingRow dwellings表的一行
type DwellingRow struct {
	ID     int32
	Region string
}

// FormatCounts 将活动计数格式化为{A=1, B=2}，活动名按字典序升序
func FormatCounts(counts map[activity.State]int) string {
	keys := lo.Keys(counts)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := lo.Map(keys, func(k activity.State, _ int) string {
		return fmt.Sprintf("%s=%d", k, counts[k])
	})
	return "{" + strings.Join(parts, ", ") + "}"
}
