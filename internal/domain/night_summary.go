package domain

import "time"

// NightSummary 一个睡眠夜的规范化记录（canonical record）
// 由 Summary Normalizer 从一行原始输入创建，创建后不可变。
// 记录从不删除，只会被工作集过滤掉（日期范围、nap 过滤等）。
type NightSummary struct {
	ID       int64  `json:"id"`       // 唯一键（厂家夜间记录 ID）
	Timezone string `json:"timezone"` // IANA 时区名（如 "Europe/Paris"）
	Label    string `json:"label"`    // 报告/实验分组标签（lab ID）

	StartUTC   time.Time `json:"start_utc"` // 入睡区间开始（UTC）
	EndUTC     time.Time `json:"end_utc"`   // 入睡区间结束（UTC）
	DatesValid bool      `json:"dates_valid"` // false = 日期无法解析或 start > end，排除出按时间排序的视图

	// 原始秒级时长字段（来源缺失或非数值时为 nil）
	TotalTimeInBed *float64 `json:"total_timeinbed"`    // 在床总时长（秒）
	TotalSleepTime *float64 `json:"total_sleep_time"`   // 睡眠总时长（秒）
	LightSeconds   *float64 `json:"lightsleepduration"` // 浅睡时长（秒）
	DeepSeconds    *float64 `json:"deepsleepduration"`  // 深睡时长（秒）
	RemSeconds     *float64 `json:"remsleepduration"`   // REM 时长（秒）
	WASOSeconds    *float64 `json:"waso"`               // 入睡后清醒时长（秒）
	SleepLatency   *float64 `json:"durationtosleep"`    // 入睡潜伏期（秒）
	WakeLatency    *float64 `json:"durationtowakeup"`   // 醒来潜伏期（秒）

	SleepEfficiency    *float64 `json:"sleep_efficiency"`      // 睡眠效率（0-1 小数）
	ApneaHypopneaIndex *float64 `json:"apnea_hypopnea_index"` // AHI（负值视为无测量 → nil）
	SnoringSeconds     *float64 `json:"snoring"`               // 打鼾时长（秒）
	OutOfBedCount      *float64 `json:"out_of_bed_count"`      // 离床次数

	HRMin *float64 `json:"hr_min"`
	HRAvg *float64 `json:"hr_average"`
	HRMax *float64 `json:"hr_max"`
	RRMin *float64 `json:"rr_min"`
	RRAvg *float64 `json:"rr_average"`
	RRMax *float64 `json:"rr_max"`

	// 夜间事件标记（in-bed/asleep/awake/out-of-bed），解析失败时为 nil
	NightEvents NightEvents `json:"night_events"`

	// 派生字段：规范化时一次性计算，来源值非数值时为 nil
	TotalTimeInBedHours    *float64 `json:"total_timeinbed_hours"`
	TotalSleepTimeHours    *float64 `json:"total_sleep_time_hours"`
	LightHours             *float64 `json:"lightsleepduration_hours"`
	DeepHours              *float64 `json:"deepsleepduration_hours"`
	RemHours               *float64 `json:"remsleepduration_hours"`
	WASOMinutes            *float64 `json:"waso_minutes"`
	SleepLatencyMinutes    *float64 `json:"durationtosleep_minutes"`
	WakeLatencyMinutes     *float64 `json:"durationtowakeup_minutes"`
	SnoringMinutes         *float64 `json:"snoring_minutes"`
	SleepEfficiencyPercent *float64 `json:"sleep_efficiency_percent"`
}

// Location 返回该夜的时区；applyTimezone=false 或时区无法加载时回退 UTC。
func (n *NightSummary) Location(applyTimezone bool) *time.Location {
	if !applyTimezone || n.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
