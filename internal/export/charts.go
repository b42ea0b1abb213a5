package export

import (
	"sort"
	"time"

	"github.com/lich472/withingsReport/internal/domain"
)

// 图表种类
const (
	ChartKindStage  = "stage"  // 睡眠阶段阶梯图
	ChartKindMetric = "metric" // 数值指标曲线
)

// ChartPoint 图表序列上的一个点
type ChartPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ChartSeries 一条图表描述结构（只含数据，渲染技术在范围之外）
type ChartSeries struct {
	Title  string       `json:"title"`
	Kind   string       `json:"kind"`
	Field  string       `json:"field"`
	Points []ChartPoint `json:"points"`
}

// NightMeta 模态/详情视图用的轻量夜元数据
type NightMeta struct {
	Label        string `json:"label"`
	StartDisplay string `json:"start_display"`
	EndDisplay   string `json:"end_display"`
}

// epoch 指标的图表标题
var epochMetricTitles = map[string]string{
	"hr":                  "Heart rate",
	"rr":                  "Respiratory rate",
	"snoring":             "Snoring",
	"sdnn":                "HRV (SDNN)",
	"rmssd":               "HRV (RMSSD)",
	"movement_score":      "Movement score",
	"chest_movement_rate": "Chest movement rate",
	"vendor_index":        "Sleep quality index",
	"breathing_sounds":    "Breathing sounds",
}

// BuildNightCharts 按夜分组构建图表描述：每夜一条睡眠阶段序列，
// 外加每个拥有 ≥2 个非空点的数值指标各一条。
func BuildNightCharts(samples []domain.EpochSample) map[int64][]ChartSeries {
	byNight := make(map[int64][]domain.EpochSample)
	for _, s := range samples {
		byNight[s.NightID] = append(byNight[s.NightID], s)
	}

	charts := make(map[int64][]ChartSeries, len(byNight))
	for nightID, nightSamples := range byNight {
		sorted := make([]domain.EpochSample, len(nightSamples))
		copy(sorted, nightSamples)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		series := []ChartSeries{stageSeries(sorted)}
		for _, field := range domain.EpochMetricFields {
			if s, ok := metricSeries(sorted, field); ok {
				series = append(series, s)
			}
		}
		charts[nightID] = series
	}
	return charts
}

func stageSeries(samples []domain.EpochSample) ChartSeries {
	points := make([]ChartPoint, 0, len(samples))
	for _, s := range samples {
		points = append(points, ChartPoint{Timestamp: s.Timestamp, Value: float64(s.State)})
	}
	return ChartSeries{Title: "Sleep stages", Kind: ChartKindStage, Field: "state", Points: points}
}

// metricSeries 少于 2 个非空点的指标不出图
func metricSeries(samples []domain.EpochSample, field string) (ChartSeries, bool) {
	var points []ChartPoint
	for _, s := range samples {
		if v := s.EpochMetric(field); v != nil {
			points = append(points, ChartPoint{Timestamp: s.Timestamp, Value: *v})
		}
	}
	if len(points) < 2 {
		return ChartSeries{}, false
	}
	return ChartSeries{
		Title:  epochMetricTitles[field],
		Kind:   ChartKindMetric,
		Field:  field,
		Points: points,
	}, true
}

// BuildNightMeta 构建夜 ID → 元数据映射（显示串用夜自身时区）
func BuildNightMeta(nights []domain.NightSummary, applyTimezone bool) map[int64]NightMeta {
	meta := make(map[int64]NightMeta, len(nights))
	for _, night := range nights {
		loc := night.Location(applyTimezone)
		m := NightMeta{Label: night.Label}
		if night.DatesValid {
			m.StartDisplay = night.StartUTC.In(loc).Format("2006-01-02 15:04")
			m.EndDisplay = night.EndUTC.In(loc).Format("2006-01-02 15:04")
		}
		meta[night.ID] = m
	}
	return meta
}
