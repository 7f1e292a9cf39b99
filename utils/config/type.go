package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：文件优先级高于MongoDB
type InputPath struct {
	DB    string   `yaml:"db,omitempty"`    // 数据库名
	Col   string   `yaml:"col,omitempty"`   // 集合名
	File  string   `yaml:"file,omitempty"`  // 文件路径（优先级高于MongoDB）
	Files []string `yaml:"files,omitempty"` // 文件路径列表（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// FromFile 是否从文件加载
func (p InputPath) FromFile() bool {
	return p.File != "" || len(p.Files) > 0
}

// Population 人口输入配置
// 功能：在InputPath基础上增加人员筛选
type Population struct {
	InputPath `yaml:",inline"`
	IDs       []int32 `yaml:"ids,omitempty"`   // 只加载指定ID的人员，为空则全部加载
	Limit     int     `yaml:"limit,omitempty"` // 加载人数上限，0表示不限制
}

// Input 指定模拟器所有输入数据的配置项
type Input struct {
	URI        string     `yaml:"uri,omitempty"` // MongoDB连接字符串
	Chains     InputPath  `yaml:"chains"`        // 活动转移链集合
	Population Population `yaml:"population"`    // 人口
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
type Control struct {
	Step   ControlStep `yaml:"step"`
	Origin string      `yaml:"origin"`         // 第0步对应的时刻，RFC3339格式，如2005-01-03T00:00:00Z
	Seed   uint64      `yaml:"seed,omitempty"` // 随机数种子，每个人员使用seed+ID
	// 视为“在家”的活动状态，用于计算各区域在家率
	HomeActivities []string `yaml:"home_activities,omitempty"`
	// 人员未指定初始活动时，按该权重抽取初始活动
	InitialActivities map[string]float64 `yaml:"initial_activities,omitempty"`
}

// Output 模拟结果输出配置
type Output struct {
	Driver           string `yaml:"driver"`                      // sqlite | postgres | mongo | memory | none
	DSN              string `yaml:"dsn,omitempty"`               // sqlite文件路径、postgres连接串或MongoDB连接串
	DB               string `yaml:"db,omitempty"`                // MongoDB数据库名
	BatchSize        int    `yaml:"batch_size,omitempty"`        // 每次写入的activity行数
	DisableRows      bool   `yaml:"disable_rows,omitempty"`      // 不输出逐人逐步的activity表
	DisableAggregate bool   `yaml:"disable_aggregate,omitempty"` // 不输出按区域聚合的activityCounts表
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`   // 输入
	Control Control `yaml:"control"` // 模拟过程控制
	Output  Output  `yaml:"output"`  // 输出
}
