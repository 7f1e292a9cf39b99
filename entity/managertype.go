package entity

import (
	"time"

	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/input"
)

// Manager依赖倒置

// entity/person/person.go的依赖倒置
type IPerson interface {
	ID() int32                // 人员ID
	DwellingID() int32        // 住宅ID
	Region() string           // 所在区域
	Activity() activity.State // 当前活动状态
	Time() time.Time          // 当前时刻
	Fallbacks() int64         // 累积概率阶梯退化次数
}

// entity/person/manager.go的依赖倒置
type IPersonManager interface {
	// 初始化
	Init(records []input.PersonRecord, chainSets map[string]*activity.ChainSet) error

	// 输入Person ID，查找Person，如果不存在则panic
	Get(id int32) IPerson
	// 输入Person ID，查找Person，如果不存在则返回error
	GetOrError(id int32) (IPerson, error)
	// 全部Person
	Persons() []IPerson
	Len() int

	Update() error   // 更新阶段：所有人前进一步
	Census() *Census // 当前时刻的活动统计
}
