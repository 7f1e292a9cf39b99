package task

import (
	"context"
	"flag"
	"fmt"
	"time"
)

const (
	SelfName = "occupancy" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：定期输出心跳日志
func (ctx *Context) prepare() {
	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		log.Infof("STEP: %d(%v)", ctx.clock.InternalStep, ctx.clock)
	}
}

// update 更新阶段，每步执行一次
// 功能：在每个仿真步骤中执行主要的仿真逻辑
// 算法说明：
// 1. 所有人按当前时刻的转移链并行前进一步
// 2. 时钟前进一步
// 3. 统计新时刻的活动分布，记录逐人活动与区域聚合结果
// 4. 更新指标
//
// 说明：任一人员出错即返回错误，模拟中止
func (ctx *Context) update(c context.Context) error {
	start := time.Now()
	if err := ctx.personManager.Update(); err != nil {
		return fmt.Errorf("step %d: %w", ctx.clock.InternalStep, err)
	}
	ctx.clock.Advance()
	census := ctx.personManager.Census()
	if err := ctx.recorder.Record(c, ctx.clock.Time(), ctx.personManager.Persons(), census); err != nil {
		return fmt.Errorf("step %d: %w", ctx.clock.InternalStep, err)
	}
	ctx.metrics.Observe(ctx.clock.InternalStep, census)
	ctx.metrics.Steps.Inc()
	ctx.metrics.StepSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// Run 运行
// 功能：初始化后按syncer节拍逐步推进，直到结束步或收到关闭指令
// 返回：初始化、步进或输出中的第一个错误
func (ctx *Context) Run(c context.Context) (err error) {
	defer func() {
		if closeErr := ctx.Close(c); err == nil {
			err = closeErr
		}
	}()
	// 初始化
	if err := ctx.Init(c); err != nil {
		return err
	}
	// init syncer
	ctx.sidecar.Step(false)
	for !ctx.clock.Done() {
		ctx.prepare()
		// 通知准备阶段完成
		log.Debugf("step %d: prepare complete and call NotifyStepReady", ctx.clock.InternalStep)
		ctx.sidecar.NotifyStepReady()
		if err := ctx.update(c); err != nil {
			return err
		}
		log.Debugf("step %d: update complete", ctx.clock.InternalStep)
		if ctx.sidecar.Step(ctx.clock.Done()) || ctx.closed.Load() {
			break
		}
	}
	log.Infof("engine complete at %v", ctx.clock)
	return nil
}
