package config

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v2"
)

const (
	defaultBatchSize = 10000
)

// RuntimeConfig 运行时配置
// 功能：存储由YAML配置解析、校验后的运行时参数
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置

	Origin   time.Time           // 第0步对应的时刻
	StepSize time.Duration       // 每步时长
	Home     map[string]struct{} // 视为在家的活动状态
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：解析时间原点与步长，补全默认值并校验
// 参数：config-原始配置对象
// 返回：运行时配置；配置不合法时返回错误
// 算法说明：
// 1. 步长、总步数必须为正，起始步非负
// 2. 时间原点按RFC3339解析，保留其时区（日类型与小时按该时区计算）
// 3. 输出批大小缺省为10000
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{All: config, C: config.Control}

	step := config.Control.Step
	if step.Interval <= 0 {
		return nil, fmt.Errorf("control.step.interval must be positive, got %v", step.Interval)
	}
	if step.Total <= 0 {
		return nil, fmt.Errorf("control.step.total must be positive, got %d", step.Total)
	}
	if step.Start < 0 {
		return nil, fmt.Errorf("control.step.start must not be negative, got %d", step.Start)
	}
	rc.StepSize = time.Duration(step.Interval * float64(time.Second))
	if rc.StepSize <= 0 {
		return nil, fmt.Errorf("control.step.interval %v is too small", step.Interval)
	}
	if config.Control.Origin == "" {
		return nil, fmt.Errorf("control.origin must be specified")
	}
	origin, err := time.Parse(time.RFC3339, config.Control.Origin)
	if err != nil {
		return nil, fmt.Errorf("control.origin: %w", err)
	}
	rc.Origin = origin
	rc.Home = lo.SliceToMap(config.Control.HomeActivities, func(s string) (string, struct{}) {
		return s, struct{}{}
	})
	for k, w := range config.Control.InitialActivities {
		if w < 0 {
			return nil, fmt.Errorf("control.initial_activities.%s must not be negative, got %v", k, w)
		}
	}
	if rc.All.Output.BatchSize <= 0 {
		rc.All.Output.BatchSize = defaultBatchSize
	}
	switch rc.All.Output.Driver {
	case "", "none", "memory", "sqlite", "postgres", "mongo":
	default:
		return nil, fmt.Errorf("unknown output.driver %q", rc.All.Output.Driver)
	}
	return rc, nil
}

// Parse 严格解析YAML配置（未知字段报错）
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config parse err: %w", err)
	}
	return c, nil
}

// Load 从文件读取并解析配置
func Load(path string) (Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file load err: %w", err)
	}
	return Parse(file)
}
