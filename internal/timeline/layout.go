// Package timeline 把每夜（及其清醒区间）投影到统一的
// "距当地正午分钟数"横轴，供多夜横向时间线渲染使用
// （管线第 4 阶段，只产出数值/结构化数据，不做任何绘制）。
package timeline

import (
	"sort"
	"time"

	"github.com/lich472/withingsReport/internal/domain"

	"go.uber.org/zap"
)

// minutesPerDay 一天的分钟数；noonOffset 当地正午对应的分钟数
const (
	minutesPerDay = 1440
	noonOffset    = 720
)

// MinutesFromNoon 把单个时刻归一化为距当地正午的分钟数，结果恒在
// [0, 1440)：当地正午=0，当地午夜=720。单时刻归一化使用无条件取模。
func MinutesFromNoon(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return ((local.Hour()*60+local.Minute())-noonOffset+minutesPerDay) % minutesPerDay
}

// Builder Timing Layout Builder（管线第 4 阶段）
type Builder struct {
	applyTimezone bool // false 时所有投影锚定 UTC
	logger        *zap.Logger
}

// NewBuilder 创建 Timing Layout Builder
func NewBuilder(applyTimezone bool, logger *zap.Logger) *Builder {
	return &Builder{applyTimezone: applyTimezone, logger: logger}
}

// Build 为每个日期有效的夜生成一条 TimingRecord，按 EndUTC 升序排列
// （垂直堆叠顺序稳定）。episodes 可为 nil，此时省略清醒覆盖层。
func (b *Builder) Build(nights []domain.NightSummary, episodes map[int64][]domain.WakeEpisode) []domain.TimingRecord {
	records := make([]domain.TimingRecord, 0, len(nights))

	ordered := make([]domain.NightSummary, 0, len(nights))
	for _, night := range nights {
		if !night.DatesValid {
			b.logger.Debug("night excluded from timing layout: invalid dates",
				zap.Int64("night_id", night.ID))
			continue
		}
		ordered = append(ordered, night)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].EndUTC.Before(ordered[j].EndUTC)
	})

	for _, night := range ordered {
		records = append(records, b.buildRecord(night, episodes[night.ID]))
	}
	return records
}

func (b *Builder) buildRecord(night domain.NightSummary, episodes []domain.WakeEpisode) domain.TimingRecord {
	loc := night.Location(b.applyTimezone)

	base := MinutesFromNoon(night.StartUTC, loc)
	end := MinutesFromNoon(night.EndUTC, loc)
	// 结束值小于 base 说明跨过了 1440 分钟的回绕点，条件性 +1440
	if end < base {
		end += minutesPerDay
	}

	record := domain.TimingRecord{
		NightID:         night.ID,
		Label:           night.EndUTC.In(loc).Format("2006-01-02"),
		BaseMinutes:     base,
		DurationMinutes: end - base,
		OutOfBedCount:   night.NightEvents.CountOutOfBed(),

		AHI:               night.ApneaHypopneaIndex,
		SnoringMinutes:    night.SnoringMinutes,
		AvgHeartRate:      night.HRAvg,
		EfficiencyPercent: night.SleepEfficiencyPercent,
		TimeInBedHours:    night.TotalTimeInBedHours,
		TimeAsleepHours:   night.TotalSleepTimeHours,
	}
	if night.OutOfBedCount != nil {
		record.OutOfBedCount = int(*night.OutOfBedCount)
	}
	// 入睡潜伏期：从 base 起的第二根细条
	if night.SleepLatencyMinutes != nil {
		record.LatencyMinutes = *night.SleepLatencyMinutes
	}

	for _, ep := range episodes {
		record.WakeSpans = append(record.WakeSpans, b.wakeSpan(ep, base, loc))
	}
	return record
}

// wakeSpan 把清醒区间投影到同一横轴：端点相对 base 做条件性 +1440 修正
func (b *Builder) wakeSpan(ep domain.WakeEpisode, base int, loc *time.Location) domain.WakeSpan {
	start := MinutesFromNoon(ep.Start, loc)
	if start < base {
		start += minutesPerDay
	}
	end := MinutesFromNoon(ep.End, loc)
	if end < base {
		end += minutesPerDay
	}
	if end < start {
		end += minutesPerDay
	}
	return domain.WakeSpan{
		OffsetMinutes:   start - base,
		DurationMinutes: end - start,
	}
}
