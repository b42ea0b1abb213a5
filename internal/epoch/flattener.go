// Package epoch 把每夜稀疏的分指标时间序列段展开为稠密的
// 按时间戳对齐的 EpochSample 行（管线第 2 阶段）。
package epoch

import (
	"sort"
	"strconv"
	"time"

	"github.com/lich472/withingsReport/internal/domain"

	"go.uber.org/zap"
)

// SparseSeries 稀疏序列：时间戳字符串（epoch 秒）→ 数值
// 不是所有指标共享同一时间戳集合。
type SparseSeries map[string]float64

// Segment 一段单一睡眠阶段的采样区间，携带零个或多个稀疏指标序列
type Segment struct {
	State  domain.SleepStage       `json:"state"`
	Series map[string]SparseSeries `json:"series"` // 指标字段名 → 稀疏序列
}

// NightSeries 一夜的有序分段列表
type NightSeries struct {
	NightID  int64     `json:"night_id"`
	Segments []Segment `json:"segments"`
}

// Flattener Epoch Flattener（管线第 2 阶段）
type Flattener struct {
	logger *zap.Logger
}

// NewFlattener 创建 Epoch Flattener
func NewFlattener(logger *zap.Logger) *Flattener {
	return &Flattener{logger: logger}
}

// Flatten 展开全部夜的分段为 EpochSample 行。
//
// 每段按 domain.EpochMetricFields 的声明顺序选取第一个非空指标作为
// 参考字段；参考字段的键集合决定该段要发射的时间戳集合。
// 没有任何非空指标的段被跳过（不贡献可观测样本）。
// 各夜、各段的样本直接拼接，不做跨夜去重。
func (f *Flattener) Flatten(nights []NightSeries) []domain.EpochSample {
	var samples []domain.EpochSample
	for _, night := range nights {
		for _, seg := range night.Segments {
			samples = append(samples, f.flattenSegment(night.NightID, seg)...)
		}
	}
	return samples
}

func (f *Flattener) flattenSegment(nightID int64, seg Segment) []domain.EpochSample {
	reference := referenceField(seg)
	if reference == "" {
		return nil
	}

	// 参考字段的键集合 = 要发射的时间戳集合（数值升序，确定性输出）
	keys := make([]string, 0, len(seg.Series[reference]))
	for ts := range seg.Series[reference] {
		keys = append(keys, ts)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseInt(keys[i], 10, 64)
		b, _ := strconv.ParseInt(keys[j], 10, 64)
		return a < b
	})

	samples := make([]domain.EpochSample, 0, len(keys))
	for _, ts := range keys {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			f.logger.Warn("skipping sample with unparseable timestamp key",
				zap.Int64("night_id", nightID),
				zap.String("timestamp", ts),
			)
			continue
		}
		sample := domain.EpochSample{
			NightID:   nightID,
			Timestamp: time.Unix(sec, 0).UTC(),
			State:     seg.State,
		}
		for _, field := range domain.EpochMetricFields {
			series, ok := seg.Series[field]
			if !ok {
				continue
			}
			if v, ok := series[ts]; ok {
				value := v
				sample.SetEpochMetric(field, &value)
			}
		}
		samples = append(samples, sample)
	}
	return samples
}

// referenceField 按声明顺序返回第一个存在且非空的指标字段
func referenceField(seg Segment) string {
	for _, field := range domain.EpochMetricFields {
		if len(seg.Series[field]) > 0 {
			return field
		}
	}
	return ""
}
