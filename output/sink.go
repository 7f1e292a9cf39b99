package output

import (
	"context"
	"fmt"

	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
)

// Sink 模拟结果的写出目标
// 说明：所有方法只由任务主循环调用，实现无需支持并发写入
type Sink interface {
	// 写出人员及其住宅（模拟开始时调用一次）
	WritePeople(ctx context.Context, people []PersonRow, dwellings []DwellingRow) error
	// 追加写出逐人逐步的活动记录
	WriteActivity(ctx context.Context, records []Record) error
	// 追加写出按区域聚合的活动记录
	WriteAggregated(ctx context.Context, records []AggregateRecord) error
	Close() error
}

// Open 根据输出配置创建Sink
// 参数：ctx-上下文，c-输出配置
// 返回：Sink；驱动未知或连接失败时返回错误
func Open(ctx context.Context, c config.Output) (Sink, error) {
	switch c.Driver {
	case "", "none":
		return Discard{}, nil
	case "memory":
		return NewMemorySink(), nil
	case "sqlite":
		return OpenSQL(ctx, DialectSQLite, c.DSN)
	case "postgres":
		return OpenSQL(ctx, DialectPostgres, c.DSN)
	case "mongo":
		return OpenMongo(ctx, c.DSN, c.DB)
	default:
		return nil, fmt.Errorf("unknown output driver %q", c.Driver)
	}
}

// Discard 丢弃全部输出
type Discard struct{}

func (Discard) WritePeople(context.Context, []PersonRow, []DwellingRow) error { return nil }
func (Discard) WriteActivity(context.Context, []Record) error                 { return nil }
func (Discard) WriteAggregated(context.Context, []AggregateRecord) error      { return nil }
func (Discard) Close() error                                                  { return nil }
