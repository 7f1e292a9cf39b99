package input

import (
	"context"
	"fmt"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Input 输入数据
// 功能：存储模拟所需的全部输入数据
// 说明：转移链集合构建后只读，由同一集合的所有人员共享
type Input struct {
	ChainSets map[string]*activity.ChainSet
	Persons   []PersonRecord
}

// Init 加载数据
// 功能：根据配置加载转移链集合与人口
// 参数：ctx-上下文，c-配置对象
// 返回：加载完成的输入数据；任何配置错误都会使加载失败，保证模拟开始前快速失败
// 算法说明：
// 1. 数据库连接：任一输入不来自文件时建立MongoDB连接
// 2. 转移链：从YAML文件或MongoDB平铺行构建，所有链在此处完成行和与完整性校验
// 3. 人口：从YAML文件或MongoDB加载，按ID筛选、数量限制，检查ID重复
func Init(ctx context.Context, c config.Config) (res *Input, err error) {
	var client *mongo.Client
	if !c.Input.Chains.FromFile() || !c.Input.Population.FromFile() {
		if c.Input.URI == "" {
			return nil, fmt.Errorf("input.uri must be specified when chains or population are not loaded from files")
		}
		client = mongoutil.NewClient(c.Input.URI)
		defer client.Disconnect(context.Background())
	}

	res = &Input{}
	if c.Input.Chains.FromFile() {
		res.ChainSets, err = LoadChainSetFiles(fileList(c.Input.Chains))
	} else {
		var rows []ChainRow
		rows, err = downloadAll[ChainRow](ctx, client, c.Input.Chains)
		if err == nil {
			res.ChainSets, err = BuildChainSetsFromRows(rows)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load chains: %w", err)
	}
	log.Infof("ChainSet: %v", len(res.ChainSets))

	var persons []PersonRecord
	if c.Input.Population.FromFile() {
		persons, err = LoadPopulationFiles(fileList(c.Input.Population.InputPath))
	} else {
		persons, err = downloadAll[PersonRecord](ctx, client, c.Input.Population.InputPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load population: %w", err)
	}
	res.Persons, err = FilterPopulation(persons, c.Input.Population.IDs, c.Input.Population.Limit)
	if err != nil {
		return nil, err
	}
	log.Infof("Person: %v", len(res.Persons))
	return res, nil
}

func fileList(p config.InputPath) []string {
	if p.File != "" {
		return append([]string{p.File}, p.Files...)
	}
	return p.Files
}

// downloadAll 从MongoDB集合按自然顺序读取全部文档
func downloadAll[T any](ctx context.Context, client *mongo.Client, inputPath config.InputPath) ([]T, error) {
	coll := mongoutil.GetMongoColl(client, inputPath)
	log.Infof("start fetching from %s.%s", inputPath.DB, inputPath.Col)
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find %s.%s: %w", inputPath.DB, inputPath.Col, err)
	}
	var res []T
	if err := cur.All(ctx, &res); err != nil {
		return nil, fmt.Errorf("decode %s.%s: %w", inputPath.DB, inputPath.Col, err)
	}
	log.Infof("finish fetching from %s.%s: %d documents", inputPath.DB, inputPath.Col, len(res))
	return res, nil
}
