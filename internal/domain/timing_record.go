package domain

// WakeSpan 清醒区间在"距当地正午分钟数"横轴上的投影
type WakeSpan struct {
	OffsetMinutes   int `json:"offset_minutes"`   // 相对于本夜 base 的偏移
	DurationMinutes int `json:"duration_minutes"`
}

// TimingRecord 横向多夜时间线可视化的一行。
// base 以"距当地正午分钟数"表示（当地正午=0，午夜=720），
// 保证跨日历日的夜也能占据单根不回绕的条。
type TimingRecord struct {
	NightID         int64      `json:"night_id"`
	Label           string     `json:"label"`            // 显示标签（当地日历日期）
	BaseMinutes     int        `json:"base_minutes"`     // 夜开始的距正午分钟数
	DurationMinutes int        `json:"duration_minutes"` // wrap 修正后的夜时长
	LatencyMinutes  float64    `json:"latency_minutes"`  // 入睡潜伏期细条
	WakeSpans       []WakeSpan `json:"wake_spans"`       // 清醒区间覆盖层（可为空）

	// 侧栏注释：直接从 NightSummary 拷贝的字面值
	OutOfBedCount     int      `json:"out_of_bed_count"`
	AHI               *float64 `json:"apnea_hypopnea_index"`
	SnoringMinutes    *float64 `json:"snoring_minutes"`
	AvgHeartRate      *float64 `json:"hr_average"`
	EfficiencyPercent *float64 `json:"sleep_efficiency_percent"`
	TimeInBedHours    *float64 `json:"total_timeinbed_hours"`
	TimeAsleepHours   *float64 `json:"total_sleep_time_hours"`
}
