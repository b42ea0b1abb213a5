package domain

// MetricKind 指标的单位换算类别
type MetricKind int

const (
	KindPassthrough   MetricKind = iota // 原样输出
	KindDurationHours                   // 秒 → 小时
	KindDurationMins                    // 秒 → 分钟
	KindFraction                        // 小数 → 百分比（×100）
)

// SeverityKind 指标的严重度分级规则
type SeverityKind int

const (
	SeverityNone    SeverityKind = iota // 无分级
	SeverityAHI                         // AHI 分级
	SeveritySnoring                     // 打鼾分钟数分级
)

// MetricSpec 单个汇总指标的规格：单位换算、显示名、取值与派生字段写回
type MetricSpec struct {
	Field       string
	DisplayName string
	Kind        MetricKind
	Unit        string // 换算后的显示单位
	Severity    SeverityKind

	// Get 从规范化记录读取原始值（秒/小数/原样）
	Get func(n *NightSummary) *float64
	// SetDerived 规范化时写回换算后的派生值（无派生字段时为 nil）
	SetDerived func(n *NightSummary, v *float64)
}

// MetricTable 进程级常量配置：启动时构建一次，注入 Summary Normalizer
// 与 Statistics Engine，之后只读。
type MetricTable struct {
	specs []MetricSpec
	index map[string]*MetricSpec
}

// NewMetricTable 构建不可变指标表
func NewMetricTable() *MetricTable {
	specs := []MetricSpec{
		{Field: "total_timeinbed", DisplayName: "Time in bed", Kind: KindDurationHours, Unit: "h",
			Get:        func(n *NightSummary) *float64 { return n.TotalTimeInBed },
			SetDerived: func(n *NightSummary, v *float64) { n.TotalTimeInBedHours = v }},
		{Field: "total_sleep_time", DisplayName: "Time asleep", Kind: KindDurationHours, Unit: "h",
			Get:        func(n *NightSummary) *float64 { return n.TotalSleepTime },
			SetDerived: func(n *NightSummary, v *float64) { n.TotalSleepTimeHours = v }},
		{Field: "lightsleepduration", DisplayName: "Light sleep", Kind: KindDurationHours, Unit: "h",
			Get:        func(n *NightSummary) *float64 { return n.LightSeconds },
			SetDerived: func(n *NightSummary, v *float64) { n.LightHours = v }},
		{Field: "deepsleepduration", DisplayName: "Deep sleep", Kind: KindDurationHours, Unit: "h",
			Get:        func(n *NightSummary) *float64 { return n.DeepSeconds },
			SetDerived: func(n *NightSummary, v *float64) { n.DeepHours = v }},
		{Field: "remsleepduration", DisplayName: "REM sleep", Kind: KindDurationHours, Unit: "h",
			Get:        func(n *NightSummary) *float64 { return n.RemSeconds },
			SetDerived: func(n *NightSummary, v *float64) { n.RemHours = v }},
		{Field: "waso", DisplayName: "WASO", Kind: KindDurationMins, Unit: "min",
			Get:        func(n *NightSummary) *float64 { return n.WASOSeconds },
			SetDerived: func(n *NightSummary, v *float64) { n.WASOMinutes = v }},
		{Field: "durationtosleep", DisplayName: "Sleep latency", Kind: KindDurationMins, Unit: "min",
			Get:        func(n *NightSummary) *float64 { return n.SleepLatency },
			SetDerived: func(n *NightSummary, v *float64) { n.SleepLatencyMinutes = v }},
		{Field: "durationtowakeup", DisplayName: "Wake latency", Kind: KindDurationMins, Unit: "min",
			Get:        func(n *NightSummary) *float64 { return n.WakeLatency },
			SetDerived: func(n *NightSummary, v *float64) { n.WakeLatencyMinutes = v }},
		{Field: "snoring", DisplayName: "Snoring", Kind: KindDurationMins, Unit: "min", Severity: SeveritySnoring,
			Get:        func(n *NightSummary) *float64 { return n.SnoringSeconds },
			SetDerived: func(n *NightSummary, v *float64) { n.SnoringMinutes = v }},
		{Field: "sleep_efficiency", DisplayName: "Sleep efficiency", Kind: KindFraction, Unit: "%",
			Get:        func(n *NightSummary) *float64 { return n.SleepEfficiency },
			SetDerived: func(n *NightSummary, v *float64) { n.SleepEfficiencyPercent = v }},
		{Field: "apnea_hypopnea_index", DisplayName: "AHI", Kind: KindPassthrough, Unit: "events/h", Severity: SeverityAHI,
			Get: func(n *NightSummary) *float64 { return n.ApneaHypopneaIndex }},
		{Field: "out_of_bed_count", DisplayName: "Out of bed", Kind: KindPassthrough, Unit: "count",
			Get: func(n *NightSummary) *float64 { return n.OutOfBedCount }},
		{Field: "hr_min", DisplayName: "Heart rate (min)", Kind: KindPassthrough, Unit: "bpm",
			Get: func(n *NightSummary) *float64 { return n.HRMin }},
		{Field: "hr_average", DisplayName: "Heart rate (avg)", Kind: KindPassthrough, Unit: "bpm",
			Get: func(n *NightSummary) *float64 { return n.HRAvg }},
		{Field: "hr_max", DisplayName: "Heart rate (max)", Kind: KindPassthrough, Unit: "bpm",
			Get: func(n *NightSummary) *float64 { return n.HRMax }},
		{Field: "rr_min", DisplayName: "Respiratory rate (min)", Kind: KindPassthrough, Unit: "rpm",
			Get: func(n *NightSummary) *float64 { return n.RRMin }},
		{Field: "rr_average", DisplayName: "Respiratory rate (avg)", Kind: KindPassthrough, Unit: "rpm",
			Get: func(n *NightSummary) *float64 { return n.RRAvg }},
		{Field: "rr_max", DisplayName: "Respiratory rate (max)", Kind: KindPassthrough, Unit: "rpm",
			Get: func(n *NightSummary) *float64 { return n.RRMax }},
	}

	index := make(map[string]*MetricSpec, len(specs))
	for i := range specs {
		index[specs[i].Field] = &specs[i]
	}
	return &MetricTable{specs: specs, index: index}
}

// Lookup 按字段名查找指标规格，未知字段返回 nil
func (t *MetricTable) Lookup(field string) *MetricSpec {
	return t.index[field]
}

// Specs 返回全部指标规格（声明顺序）
func (t *MetricTable) Specs() []MetricSpec {
	return t.specs
}

// ApplyDerived 为一条记录写回全部派生换算值（规范化时调用一次；
// 从持久层读回的记录也用它补齐派生字段）
func (t *MetricTable) ApplyDerived(n *NightSummary) {
	for _, spec := range t.specs {
		if spec.SetDerived == nil {
			continue
		}
		if raw := spec.Get(n); raw != nil {
			converted := spec.Convert(*raw)
			spec.SetDerived(n, &converted)
		}
	}
}

// Convert 按指标类别换算单个值
func (s *MetricSpec) Convert(v float64) float64 {
	switch s.Kind {
	case KindDurationHours:
		return v / 3600.0
	case KindDurationMins:
		return v / 60.0
	case KindFraction:
		return v * 100.0
	default:
		return v
	}
}
