// Package stats 在夜集合上计算人群统计：表驱动的单位换算、
// 均值/总体标准差/最小/最大聚合、严重度分级以及工作日/周末拆分
// （管线第 5 阶段）。
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/lich472/withingsReport/internal/domain"

	"go.uber.org/zap"
)

// Engine Statistics Engine（管线第 5 阶段）
// 只消费规范化后的 NightSummary；指标表为启动时注入的不可变配置。
type Engine struct {
	table         *domain.MetricTable
	applyTimezone bool
	logger        *zap.Logger
}

// NewEngine 创建 Statistics Engine
func NewEngine(table *domain.MetricTable, applyTimezone bool, logger *zap.Logger) *Engine {
	return &Engine{table: table, applyTimezone: applyTimezone, logger: logger}
}

// Aggregate 对单个指标字段计算聚合。
// 未知字段名是配置错误；空值/非数值在抽取阶段即被丢弃。
func (e *Engine) Aggregate(nights []domain.NightSummary, field string) (*domain.MetricAggregate, error) {
	spec := e.table.Lookup(field)
	if spec == nil {
		return nil, fmt.Errorf("unknown metric field %q", field)
	}

	values := extractValues(nights, spec)
	agg := &domain.MetricAggregate{
		Field:       spec.Field,
		DisplayName: spec.DisplayName,
		Unit:        spec.Unit,
		Count:       len(values),
	}
	if len(values) == 0 {
		// 约定：空集合的均值为 0，min/max 不计算
		return agg, nil
	}

	agg.Mean = fold(values, 0, func(acc, v float64) float64 { return acc + v }) / float64(len(values))
	variance := fold(values, 0, func(acc, v float64) float64 {
		d := v - agg.Mean
		return acc + d*d
	}) / float64(len(values))
	agg.Std = math.Sqrt(variance)
	agg.Min = fold(values[1:], values[0], math.Min)
	agg.Max = fold(values[1:], values[0], math.Max)

	switch spec.Severity {
	case domain.SeverityAHI:
		agg.Severity = ClassifyAHI(agg.Mean)
	case domain.SeveritySnoring:
		agg.Severity = ClassifySnoringMinutes(agg.Mean)
	}
	return agg, nil
}

// AggregateAll 对指标表中所有字段计算聚合（声明顺序）
func (e *Engine) AggregateAll(nights []domain.NightSummary) []*domain.MetricAggregate {
	aggregates := make([]*domain.MetricAggregate, 0, len(e.table.Specs()))
	for _, spec := range e.table.Specs() {
		agg, err := e.Aggregate(nights, spec.Field)
		if err != nil {
			continue
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates
}

// DayTypeAggregate 工作日/周末各自独立聚合的结果
type DayTypeAggregate struct {
	Weekday *domain.MetricAggregate `json:"weekday"`
	Weekend *domain.MetricAggregate `json:"weekend"`
}

// AggregateByDayType 按 EndUTC 的当地星期几把夜集合拆成工作日/周末
// 两个分区，各自用相同公式独立聚合。
func (e *Engine) AggregateByDayType(nights []domain.NightSummary, field string) (*DayTypeAggregate, error) {
	weekday, weekend := e.PartitionByDayType(nights)

	weekdayAgg, err := e.Aggregate(weekday, field)
	if err != nil {
		return nil, err
	}
	weekendAgg, err := e.Aggregate(weekend, field)
	if err != nil {
		return nil, err
	}
	return &DayTypeAggregate{Weekday: weekdayAgg, Weekend: weekendAgg}, nil
}

// PartitionByDayType 拆分夜集合；日期无效的记录不进入任何分区
func (e *Engine) PartitionByDayType(nights []domain.NightSummary) (weekday, weekend []domain.NightSummary) {
	for _, night := range nights {
		if !night.DatesValid {
			continue
		}
		loc := night.Location(e.applyTimezone)
		switch night.EndUTC.In(loc).Weekday() {
		case time.Saturday, time.Sunday:
			weekend = append(weekend, night)
		default:
			weekday = append(weekday, night)
		}
	}
	return weekday, weekend
}

// extractValues 抽取并换算非空数值（空值在聚合前丢弃）
func extractValues(nights []domain.NightSummary, spec *domain.MetricSpec) []float64 {
	values := make([]float64, 0, len(nights))
	for i := range nights {
		if raw := spec.Get(&nights[i]); raw != nil {
			values = append(values, spec.Convert(*raw))
		}
	}
	return values
}

// fold 对不可变值序列做显式归约，避免隐藏的可变累加器
func fold(values []float64, init float64, fn func(acc, v float64) float64) float64 {
	acc := init
	for _, v := range values {
		acc = fn(acc, v)
	}
	return acc
}
