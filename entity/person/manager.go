package person

import (
	"fmt"
	"sort"
	"time"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/input"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/randengine"
)

// PersonManager Person管理器
// 功能：管理全体Person，按统一节拍并行推进，并提供查找与活动统计
type PersonManager struct {
	ctx entity.ITaskContext

	data    map[int32]*Person
	persons []*Person
}

var _ entity.IPersonManager = (*PersonManager)(nil)

// NewManager 创建Person管理器实例
func NewManager(ctx entity.ITaskContext) *PersonManager {
	return &PersonManager{
		ctx:     ctx,
		data:    make(map[int32]*Person),
		persons: make([]*Person, 0),
	}
}

// initialActivities 初始活动抽样表（按状态名排序以保证可复现）
type initialActivities struct {
	states  []activity.State
	weights []float64
}

func newInitialActivities(weights map[string]float64) initialActivities {
	keys := lo.Keys(weights)
	sort.Strings(keys)
	return initialActivities{
		states:  lo.Map(keys, func(k string, _ int) activity.State { return activity.State(k) }),
		weights: lo.Map(keys, func(k string, _ int) float64 { return weights[k] }),
	}
}

// Init 初始化所有Person
// 功能：根据人口记录并行创建Person，建立ID映射关系
// 参数：records-人口记录，chainSets-集合名->转移链集合
// 返回：错误（未知转移链集合、非法初始活动、ID重复）
// 说明：每个人使用以seed+ID为种子的独立随机数引擎，初始时刻与步长取自时钟
func (m *PersonManager) Init(records []input.PersonRecord, chainSets map[string]*activity.ChainSet) error {
	clk := m.ctx.Clock()
	rc := m.ctx.RuntimeConfig()
	t0, dt := clk.Time(), clk.DT
	initial := newInitialActivities(rc.C.InitialActivities)

	type result struct {
		p   *Person
		err error
	}
	results := parallel.GoMap(records, func(r input.PersonRecord) result {
		p, err := newPerson(r, chainSets, initial, rc.C.Seed, t0, dt)
		if err != nil {
			return result{err: fmt.Errorf("person %d: %w", r.ID, err)}
		}
		return result{p: p}
	})
	if failed, ok := lo.Find(results, func(r result) bool { return r.err != nil }); ok {
		return failed.err
	}
	persons := lo.Map(results, func(r result, _ int) *Person { return r.p })
	sort.Slice(persons, func(i, j int) bool { return persons[i].id < persons[j].id })
	data := lo.SliceToMap(persons, func(p *Person) (int32, *Person) {
		return p.id, p
	})
	if len(data) != len(persons) {
		return fmt.Errorf("persons have duplicated ids, please check data")
	}
	m.persons, m.data = persons, data
	log.Infof("%d persons initialized at %v", len(persons), t0)
	return nil
}

// newPerson 根据人口记录创建Person
// 算法说明：
// 1. 确定转移链集合：记录未指定且只有一个集合时使用该集合
// 2. 以seed+ID创建独立随机数引擎
// 3. 初始活动未指定时按initial_activities权重抽取
func newPerson(
	r input.PersonRecord,
	chainSets map[string]*activity.ChainSet,
	initial initialActivities,
	seed uint64,
	t0 time.Time,
	dt time.Duration,
) (*Person, error) {
	name := r.ChainSet
	if name == "" && len(chainSets) == 1 {
		name = lo.Keys(chainSets)[0]
	}
	cs, ok := chainSets[name]
	if !ok {
		return nil, &activity.ConfigurationError{Reason: fmt.Sprintf("unknown chain set %q", r.ChainSet)}
	}
	generator := randengine.New(seed + uint64(r.ID))
	state := activity.State(r.InitialActivity)
	if state == "" {
		i := generator.DiscreteDistribution(initial.weights)
		if i < 0 {
			return nil, &activity.ConfigurationError{Reason: "no initial activity and control.initial_activities is empty"}
		}
		state = initial.states[i]
	}
	p, err := New(cs, generator, state, t0, dt)
	if err != nil {
		return nil, err
	}
	p.id, p.dwellingID, p.region = r.ID, r.DwellingID, r.Region
	return p, nil
}

// Get 根据ID获取Person实例，如果不存在则panic
func (m *PersonManager) Get(id int32) entity.IPerson {
	if p, ok := m.data[id]; !ok {
		log.Panicf("no id %d in person data", id)
		return nil
	} else {
		return p
	}
}

// GetOrError 根据ID获取Person实例，如果不存在则返回错误
func (m *PersonManager) GetOrError(id int32) (entity.IPerson, error) {
	if p, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in person data", id)
	} else {
		return p, nil
	}
}

// Persons 全部Person（按ID升序）
func (m *PersonManager) Persons() []entity.IPerson {
	return lo.Map(m.persons, func(p *Person, _ int) entity.IPerson { return p })
}

func (m *PersonManager) Len() int {
	return len(m.persons)
}

// Update 更新阶段
// 功能：所有人并行前进一步
// 返回：任一人员出错即返回该错误，整个模拟应当中止
// 说明：Person之间不共享可变状态，并行步进无需加锁
func (m *PersonManager) Update() error {
	errs := parallel.GoMap(m.persons, func(p *Person) error {
		if err := p.Step(); err != nil {
			return fmt.Errorf("person %d: %w", p.id, err)
		}
		return nil
	})
	if err, ok := lo.Find(errs, func(err error) bool { return err != nil }); ok {
		return err
	}
	return nil
}

// Census 统计当前时刻的活动分布
// 功能：统计全体、各区域处于各活动的人数，以及各区域处于在家类活动的人数
// 返回：活动统计
func (m *PersonManager) Census() *entity.Census {
	home := m.ctx.RuntimeConfig().Home
	c := &entity.Census{
		Time:  m.ctx.Clock().Time(),
		Total: len(m.persons),
		Counts: lo.CountValuesBy(m.persons, func(p *Person) activity.State {
			return p.activity
		}),
		Regions: make(map[string]*entity.RegionCensus),
		Fallbacks: lo.SumBy(m.persons, func(p *Person) int64 {
			return p.fallbacks
		}),
	}
	for region, persons := range lo.GroupBy(m.persons, func(p *Person) string { return p.region }) {
		c.Regions[region] = &entity.RegionCensus{
			Total: len(persons),
			Counts: lo.CountValuesBy(persons, func(p *Person) activity.State {
				return p.activity
			}),
			Home: lo.CountBy(persons, func(p *Person) bool {
				_, ok := home[string(p.activity)]
				return ok
			}),
		}
	}
	return c
}
