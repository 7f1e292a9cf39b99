package task

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/agentsociety-occupancy/clock"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/person"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/output"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/input"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/metrics"
)

// Sidecar 与syncer交互的辅助程序
// 说明：生产环境为*syncer.Sidecar，测试中可替换为本地实现
type Sidecar interface {
	Serve() error         // 阻塞提供服务，Close后返回
	Step(close bool) bool // 同步一步，返回是否需要结束
	NotifyStepReady()     // 通知准备阶段完成
	Close() error         // 停止服务
}

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态
// 说明：管理时钟、人员管理器、配置、输入、输出与指标
type Context struct {
	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock

	// 辅助程序，处理分布式模式下相关调用，包括与syncer、其他服务的交互
	sidecar Sidecar
	// sidecar close channel
	sidecarCloseCh chan struct{}
	// 是否已启动sidecar服务
	serving bool

	// Person管理器
	personManager entity.IPersonManager

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 用于初始化的输入
	initRes *input.Input
	// 结果记录
	recorder *output.Recorder
	// 指标
	metrics *metrics.Metrics
}

// NewContext 创建新的仿真任务上下文
// 功能：校验配置，加载输入，打开输出，创建时钟与人员管理器
// 参数：
//   - ctx: 上下文，用于输入加载与输出连接
//   - job: 任务名称
//   - c: 配置对象
//   - sidecar: sidecar实例，可为nil（仅校验时）
//   - m: 指标，可为nil
//
// 返回：初始化完成的Context实例，任何配置或输入错误都会导致失败
// 算法说明：
// 1. 解析运行时配置并创建时钟
// 2. 下载和解析转移链集合与人口
// 3. 按输出驱动打开Sink，创建记录器
// 4. 创建人员管理器（人员在Init中创建）
func NewContext(
	ctx context.Context,
	job string,
	c config.Config,
	sidecar Sidecar,
	m *metrics.Metrics,
) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	initRes, err := input.Init(ctx, c)
	if err != nil {
		return nil, err
	}
	sink, err := output.Open(ctx, rc.All.Output)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	if m == nil {
		m = metrics.New()
	}
	t := &Context{
		job:            job,
		clock:          clock.New(rc),
		sidecar:        sidecar,
		sidecarCloseCh: make(chan struct{}),
		runtimeConfig:  rc,
		initRes:        initRes,
		recorder:       output.NewRecorder(sink, rc.All.Output),
		metrics:        m,
	}
	t.personManager = person.NewManager(t)
	return t, nil
}

// Serve 在后台启动sidecar服务
// 说明：需在所有RPC服务注册到sidecar之后调用
func (ctx *Context) Serve() {
	ctx.serving = true
	go func() {
		err := ctx.sidecar.Serve()
		if err != nil {
			log.Panicf("failed to serve: %v", err)
		}
		ctx.sidecarCloseCh <- struct{}{}
	}()
}

// GetInput 加载完成的转移链集合与人口
func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) PersonManager() entity.IPersonManager {
	return ctx.personManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Recorder() *output.Recorder {
	return ctx.recorder
}

func (ctx *Context) Metrics() *metrics.Metrics {
	return ctx.metrics
}

// Init 初始化
// 功能：重置时钟，创建全部人员，写出people/dwellings表并记录起始时刻的活动
func (ctx *Context) Init(c context.Context) error {
	ctx.clock.Init()
	in := ctx.GetInput()
	if err := ctx.personManager.Init(in.Persons, in.ChainSets); err != nil {
		return fmt.Errorf("init persons: %w", err)
	}
	persons := ctx.personManager.Persons()
	if err := ctx.recorder.WritePopulation(c, persons); err != nil {
		return err
	}
	census := ctx.personManager.Census()
	ctx.metrics.Observe(ctx.clock.InternalStep, census)
	return ctx.recorder.Record(c, ctx.clock.Time(), persons, census)
}

// Close 关闭
// 功能：写出剩余结果并停止sidecar，可重复调用
func (ctx *Context) Close(c context.Context) error {
	if ctx.closed.Swap(true) {
		return nil
	}
	err := ctx.recorder.Close(c)
	if ctx.sidecar != nil {
		ctx.sidecar.Close()
		if ctx.serving {
			// wait for graceful stop
			<-ctx.sidecarCloseCh
		}
	}
	return err
}

// Validate 校验配置与输入
// 功能：加载配置引用的全部输入并创建人员，不运行模拟、不写出结果
func Validate(c context.Context, cfg config.Config) error {
	cfg.Output = config.Output{Driver: "none"}
	ctx, err := NewContext(c, "validate", cfg, nil, nil)
	if err != nil {
		return err
	}
	defer ctx.Close(c)
	in := ctx.GetInput()
	if err := ctx.personManager.Init(in.Persons, in.ChainSets); err != nil {
		return fmt.Errorf("init persons: %w", err)
	}
	log.Infof("%d chain sets and %d persons are valid", len(in.ChainSets), ctx.personManager.Len())
	return nil
}
