// Package metrics 以Prometheus指标暴露模拟进度与各区域在家率
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity"
)

const namespace = "occupancy"

// Metrics 模拟指标集合
// 说明：使用独立的Registry，多个模拟任务（或测试）之间互不干扰
type Metrics struct {
	registry *prometheus.Registry

	Step        prometheus.Gauge     // 当前步数
	Steps       prometheus.Counter   // 已完成步数
	Fallbacks   prometheus.Gauge     // 累积概率阶梯退化总次数
	Persons     *prometheus.GaugeVec // 处于各活动的人数
	HomeShare   *prometheus.GaugeVec // 各区域在家率
	StepSeconds prometheus.Histogram // 单步耗时
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Step: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step",
			Help:      "Current simulation step.",
		}),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of completed simulation steps.",
		}),
		Fallbacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ladder_fallbacks",
			Help:      "Number of transitions that fell back to the last candidate because of rounding.",
		}),
		Persons: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persons",
			Help:      "Number of persons per activity.",
		}, []string{"activity"}),
		HomeShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "home_share",
			Help:      "Share of persons at home per region.",
		}, []string{"region"}),
		StepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time spent in one simulation step.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.Step, m.Steps, m.Fallbacks, m.Persons, m.HomeShare, m.StepSeconds)
	return m
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 指标的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observe 根据活动统计更新指标
// 说明：活动与区域的集合在运行中可能变化，先清空再写入
func (m *Metrics) Observe(step int32, c *entity.Census) {
	m.Step.Set(float64(step))
	m.Fallbacks.Set(float64(c.Fallbacks))
	m.Persons.Reset()
	for state, n := range c.Counts {
		m.Persons.WithLabelValues(string(state)).Set(float64(n))
	}
	m.HomeShare.Reset()
	for region, r := range c.Regions {
		m.HomeShare.WithLabelValues(region).Set(r.HomeShare())
	}
}
