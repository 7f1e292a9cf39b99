package input

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"gopkg.in/yaml.v2"
)

// ChainRow 转移概率表中的一行（MongoDB平铺格式）
// 说明：同一(set, day_type, hour)的行按文档自然顺序构成一条转移链，该顺序即抽样阶梯顺序
type ChainRow struct {
	Set     string  `bson:"set" yaml:"set"`
	DayType string  `bson:"day_type" yaml:"day_type"`
	Hour    int     `bson:"hour" yaml:"hour"`
	From    string  `bson:"from" yaml:"from"`
	To      string  `bson:"to" yaml:"to"`
	P       float64 `bson:"p" yaml:"p"`
}

// chainsFile 转移链YAML文件
//
//	chain_sets:
//	  default:
//	    chains:
//	      day:   [{from: sleep, to: work, p: 0.9}, {from: sleep, to: sleep, p: 0.1}, ...]
//	      night: [...]
//	    weekday: [{from: 0, to: 24, chain: night}, {from: 9, to: 17, chain: day}]
//	    weekend: [{from: 0, to: 24, chain: night}]
type chainsFile struct {
	ChainSets map[string]chainSetSpec `yaml:"chain_sets"`
}

type chainSetSpec struct {
	Chains  map[string][]transitionSpec `yaml:"chains"`
	Weekday []hourRange                 `yaml:"weekday"`
	Weekend []hourRange                 `yaml:"weekend"`
}

type transitionSpec struct {
	From string  `yaml:"from"`
	To   string  `yaml:"to"`
	P    float64 `yaml:"p"`
}

// hourRange [From, To)小时区间使用名为Chain的转移链，后出现的区间覆盖先出现的
type hourRange struct {
	From  int    `yaml:"from"`
	To    int    `yaml:"to"`
	Chain string `yaml:"chain"`
}

// LoadChainSetFiles 从一个或多个YAML文件加载转移链集合，集合名不可重复
func LoadChainSetFiles(paths []string) (map[string]*activity.ChainSet, error) {
	res := make(map[string]*activity.ChainSet)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sets, err := ParseChainSets(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for name, s := range sets {
			if _, ok := res[name]; ok {
				return nil, fmt.Errorf("%s: duplicated chain set %q", path, name)
			}
			res[name] = s
		}
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("no chain set is defined")
	}
	return res, nil
}

// ParseChainSets 解析转移链YAML
// 功能：严格解析YAML并构建全部转移链集合
// 参数：data-YAML内容
// 返回：集合名->转移链集合
// 算法说明：
// 1. 每个命名链单独构建一次，多个小时区间引用同一条链时共享同一实例
// 2. 按工作日、周末的小时区间依次填充集合
// 3. 由ChainSetBuilder检查48个条目是否齐全以及状态闭合
func ParseChainSets(data []byte) (map[string]*activity.ChainSet, error) {
	var f chainsFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, err
	}
	res := make(map[string]*activity.ChainSet, len(f.ChainSets))
	for name, spec := range f.ChainSets {
		chains := make(map[string]*activity.Chain, len(spec.Chains))
		for chainName, ts := range spec.Chains {
			c, err := activity.NewChain(lo.Map(ts, func(t transitionSpec, _ int) activity.Transition {
				return activity.Transition{From: activity.State(t.From), To: activity.State(t.To), P: t.P}
			}))
			if err != nil {
				return nil, fmt.Errorf("chain set %q chain %q: %w", name, chainName, err)
			}
			chains[chainName] = c
		}
		b := activity.NewChainSetBuilder(name)
		for d, ranges := range map[activity.DayType][]hourRange{
			activity.Weekday: spec.Weekday,
			activity.Weekend: spec.Weekend,
		} {
			for _, r := range ranges {
				c, ok := chains[r.Chain]
				if !ok {
					return nil, &activity.ConfigurationError{
						Reason: fmt.Sprintf("chain set %q: %v hours [%d, %d) refer to unknown chain %q", name, d, r.From, r.To, r.Chain),
					}
				}
				b.SetHours(d, r.From, r.To, c)
			}
		}
		s, err := b.Build()
		if err != nil {
			return nil, err
		}
		res[name] = s
	}
	return res, nil
}

// BuildChainSetsFromRows 从平铺行构建转移链集合
// 功能：按(集合, 日类型, 小时)分组，每组按行顺序构成一条转移链
// 参数：rows-转移概率表
// 返回：集合名->转移链集合
func BuildChainSetsFromRows(rows []ChainRow) (map[string]*activity.ChainSet, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no chain rows")
	}
	res := make(map[string]*activity.ChainSet)
	for name, setRows := range lo.GroupBy(rows, func(r ChainRow) string { return r.Set }) {
		b := activity.NewChainSetBuilder(name)
		type key struct {
			dayType string
			hour    int
		}
		for k, group := range lo.GroupBy(setRows, func(r ChainRow) key { return key{r.DayType, r.Hour} }) {
			d, err := activity.ParseDayType(k.dayType)
			if err != nil {
				return nil, fmt.Errorf("chain set %q: %w", name, err)
			}
			c, err := activity.NewChain(lo.Map(group, func(r ChainRow, _ int) activity.Transition {
				return activity.Transition{From: activity.State(r.From), To: activity.State(r.To), P: r.P}
			}))
			if err != nil {
				return nil, fmt.Errorf("chain set %q %v/%02d: %w", name, d, k.hour, err)
			}
			b.Set(d, k.hour, c)
		}
		s, err := b.Build()
		if err != nil {
			return nil, err
		}
		res[name] = s
	}
	return res, nil
}
