package output

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
)

// Recorder 模拟结果记录器
// 功能：把每步的人员活动与区域统计转换为输出行，按批写入Sink
// 说明：activity行在内存中缓冲，满batch_size即写出；聚合行每步写出一次
type Recorder struct {
	sink      Sink
	batchSize int
	rows      bool // 是否输出activity表
	aggregate bool // 是否输出activityCounts表

	buffer  []Record
	written int64 // 已写出的activity行数
}

// NewRecorder 创建记录器
func NewRecorder(sink Sink, c config.Output) *Recorder {
	batchSize := max(c.BatchSize, 1)
	return &Recorder{
		sink:      sink,
		batchSize: batchSize,
		rows:      !c.DisableRows,
		aggregate: !c.DisableAggregate,
		buffer:    make([]Record, 0, batchSize),
	}
}

// Sink 底层输出
func (r *Recorder) Sink() Sink {
	return r.sink
}

// Written 已写出的activity行数
func (r *Recorder) Written() int64 {
	return r.written
}

// WritePopulation 写出people与dwellings表
// 功能：每人一行people，每个住宅一行dwellings（按ID升序）
// 返回：同一住宅出现在不同区域时返回错误；住宅ID为0表示未指定，不写入dwellings也不做区域校验
func (r *Recorder) WritePopulation(ctx context.Context, persons []entity.IPerson) error {
	people := lo.Map(persons, func(p entity.IPerson, _ int) PersonRow {
		return PersonRow{ID: p.ID(), DwellingID: p.DwellingID()}
	})
	regions := make(map[int32]string)
	for _, p := range persons {
		// 未指定住宅的人员不参与住宅表
		if p.DwellingID() == 0 {
			continue
		}
		if region, ok := regions[p.DwellingID()]; ok && region != p.Region() {
			return fmt.Errorf("dwelling %d is in both region %q and %q", p.DwellingID(), region, p.Region())
		}
		regions[p.DwellingID()] = p.Region()
	}
	dwellings := lo.MapToSlice(regions, func(id int32, region string) DwellingRow {
		return DwellingRow{ID: id, Region: region}
	})
	sort.Slice(dwellings, func(i, j int) bool { return dwellings[i].ID < dwellings[j].ID })
	if err := r.sink.WritePeople(ctx, people, dwellings); err != nil {
		return fmt.Errorf("write people: %w", err)
	}
	log.Infof("people: %d, dwellings: %d", len(people), len(dwellings))
	return nil
}

// Record 记录时刻t的全部人员活动与区域统计
// 参数：ctx-上下文，t-时刻，persons-全部人员，census-该时刻的活动统计
func (r *Recorder) Record(ctx context.Context, t time.Time, persons []entity.IPerson, census *entity.Census) error {
	ts := t.UnixMilli()
	if r.rows {
		for _, p := range persons {
			r.buffer = append(r.buffer, Record{Timestamp: ts, PersonID: p.ID(), Activity: p.Activity()})
			if len(r.buffer) >= r.batchSize {
				if err := r.Flush(ctx); err != nil {
					return err
				}
			}
		}
	}
	if r.aggregate && census != nil {
		regions := lo.Keys(census.Regions)
		sort.Strings(regions)
		records := lo.Map(regions, func(region string, _ int) AggregateRecord {
			return AggregateRecord{Timestamp: ts, Region: region, Counts: census.Regions[region].Counts}
		})
		if err := r.sink.WriteAggregated(ctx, records); err != nil {
			return fmt.Errorf("write aggregated activity: %w", err)
		}
	}
	return nil
}

// Flush 写出缓冲的activity行
func (r *Recorder) Flush(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}
	if err := r.sink.WriteActivity(ctx, r.buffer); err != nil {
		return fmt.Errorf("write activity: %w", err)
	}
	r.written += int64(len(r.buffer))
	log.Debugf("%d activity rows flushed (%d in total)", len(r.buffer), r.written)
	r.buffer = make([]Record, 0, r.batchSize)
	return nil
}

// Close 写出剩余缓冲并关闭Sink
func (r *Recorder) Close(ctx context.Context) error {
	flushErr := r.Flush(ctx)
	if err := r.sink.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("close output: %w", err)
	}
	return flushErr
}
