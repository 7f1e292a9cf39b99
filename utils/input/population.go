package input

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils"
	"gopkg.in/yaml.v2"
)

// PersonRecord 人口中的一个人
// 说明：InitialActivity为空时由control.initial_activities按权重抽取；ChainSet为空且只有一个集合时使用该集合
type PersonRecord struct {
	ID              int32  `bson:"id" yaml:"id"`
	DwellingID      int32  `bson:"dwelling_id" yaml:"dwelling_id"`
	Region          string `bson:"region" yaml:"region"`
	ChainSet        string `bson:"chain_set" yaml:"chain_set"`
	InitialActivity string `bson:"initial_activity" yaml:"initial_activity"`
}

type populationFile struct {
	Persons []PersonRecord `yaml:"persons"`
}

// LoadPopulationFiles 读取一个或多个人口YAML文件并按顺序拼接
func LoadPopulationFiles(paths []string) ([]PersonRecord, error) {
	res := make([]PersonRecord, 0)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var f populationFile
		if err := yaml.UnmarshalStrict(data, &f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		res = append(res, f.Persons...)
	}
	return res, nil
}

// FilterPopulation 筛选人口
// 功能：按目标ID筛选、按数量截断并检查ID重复
// 参数：persons-全部人员，ids-目标ID（为空则不筛选，否则按ids顺序输出），limit-数量上限（0表示不限制）
// 返回：筛选后的人员；为空或存在重复ID时返回错误
func FilterPopulation(persons []PersonRecord, ids []int32, limit int) ([]PersonRecord, error) {
	if dup := lo.FindDuplicatesBy(persons, func(p PersonRecord) int32 { return p.ID }); len(dup) > 0 {
		return nil, fmt.Errorf("persons have duplicated ids %v, please check data", lo.Map(dup, func(p PersonRecord, _ int) int32 {
			return p.ID
		}))
	}
	data := lo.SliceToMap(persons, func(p PersonRecord) (int32, PersonRecord) { return p.ID, p })
	persons, missing := utils.Find(data, persons, lo.Uniq(ids))
	if len(missing) > 0 {
		log.Warnf("target persons %v are not found", missing)
	}
	if limit > 0 && len(persons) > limit {
		persons = persons[:limit]
	}
	if len(persons) == 0 {
		return nil, fmt.Errorf("no valid persons to simulate")
	}
	return persons, nil
}
