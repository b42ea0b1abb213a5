// Package normalizer 把异构的睡眠夜原始输入（厂家 API 行或表格导出行）
// 规范化为统一的 NightSummary 记录（管线第 1 阶段）。
//
// 三种输入形状整批探测一次；无法识别的形状是致命错误。
// 行级问题（日期无法解析、night_events 解析失败、非数值指标）
// 不会中断整批处理：行被保留并打上显式的空值/无效标记，
// 同时产出可供断言的 Warning 列表并记录日志。
package normalizer

import (
	"encoding/json"

	"github.com/lich472/withingsReport/internal/domain"

	"go.uber.org/zap"
)

// Warning 行级可恢复问题（不会中断整批处理，但必须可观察）
type Warning struct {
	RowIndex int    `json:"row_index"`
	NightID  int64  `json:"night_id"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Normalizer Summary Normalizer（管线第 1 阶段）
type Normalizer struct {
	table  *domain.MetricTable
	logger *zap.Logger
}

// New 创建 Summary Normalizer
func New(table *domain.MetricTable, logger *zap.Logger) *Normalizer {
	return &Normalizer{table: table, logger: logger}
}

// Normalize 把一批原始行规范化为 NightSummary 集合。
// label 是调用方提供的分组标签（lab ID），附加到整批记录上。
// 返回的 error 只可能是致命配置错误（未识别形状、缺少 id 列）。
func (n *Normalizer) Normalize(rows []map[string]any, label string) ([]domain.NightSummary, []Warning, error) {
	shape, err := DetectShape(rows)
	if err != nil {
		return nil, nil, err
	}

	nights := make([]domain.NightSummary, 0, len(rows))
	var warnings []Warning
	for i, row := range rows {
		night, rowWarnings := n.normalizeRow(shape, row, i, label)
		warnings = append(warnings, rowWarnings...)
		if night != nil {
			nights = append(nights, *night)
		}
	}

	for _, w := range warnings {
		n.logger.Warn("row-level normalization problem",
			zap.Int("row_index", w.RowIndex),
			zap.Int64("night_id", w.NightID),
			zap.String("field", w.Field),
			zap.String("message", w.Message),
		)
	}
	return nights, warnings, nil
}

// normalizeRow 规范化单行；id 无法解析时跳过该行（返回 nil + warning）
func (n *Normalizer) normalizeRow(shape Shape, row map[string]any, rowIndex int, label string) (*domain.NightSummary, []Warning) {
	if shape == ShapeAPI {
		row = mergeNested(row)
	}

	var warnings []Warning
	warn := func(nightID int64, field, message string) {
		warnings = append(warnings, Warning{RowIndex: rowIndex, NightID: nightID, Field: field, Message: message})
	}

	idValue, _ := getValue(row, "id")
	idFloat := toFloat(idValue)
	if idFloat == nil {
		warn(0, "id", "row has no parseable id, skipped")
		return nil, warnings
	}
	id := int64(*idFloat)

	night := &domain.NightSummary{
		ID:       id,
		Timezone: stringValue(row, "timezone"),
		Label:    label,
	}
	if night.Label == "" {
		night.Label = stringValue(row, "label")
	}

	// 日期：API 形状用 epoch 秒列，表格形状用规范 *_utc 列
	startKey, endKey := "startdate_utc", "enddate_utc"
	if shape == ShapeAPI {
		startKey, endKey = "startdate", "enddate"
	}
	startRaw, _ := getValue(row, startKey)
	endRaw, _ := getValue(row, endKey)
	start, startOK := parseDate(startRaw)
	end, endOK := parseDate(endRaw)
	if !startOK {
		warn(id, startKey, "invalid date")
	}
	if !endOK {
		warn(id, endKey, "invalid date")
	}
	night.StartUTC = start
	night.EndUTC = end
	night.DatesValid = startOK && endOK && !start.After(end)

	// 原始数值字段（非数值来源保持 nil）
	night.TotalTimeInBed = floatField(row, "total_timeinbed")
	night.TotalSleepTime = floatField(row, "total_sleep_time")
	night.LightSeconds = floatField(row, "lightsleepduration")
	night.DeepSeconds = floatField(row, "deepsleepduration")
	night.RemSeconds = floatField(row, "remsleepduration")
	night.WASOSeconds = floatField(row, "waso")
	night.SleepLatency = floatField(row, "durationtosleep")
	night.WakeLatency = floatField(row, "durationtowakeup")
	night.SleepEfficiency = floatField(row, "sleep_efficiency")
	night.SnoringSeconds = floatField(row, "snoring")
	night.OutOfBedCount = floatField(row, "out_of_bed_count")
	night.HRMin = floatField(row, "hr_min")
	night.HRAvg = floatField(row, "hr_average")
	night.HRMax = floatField(row, "hr_max")
	night.RRMin = floatField(row, "rr_min")
	night.RRAvg = floatField(row, "rr_average")
	night.RRMax = floatField(row, "rr_max")

	// 负的 AHI 表示"无测量"，映射为 nil 而不是截断到 0
	if night.ApneaHypopneaIndex = floatField(row, "apnea_hypopnea_index"); night.ApneaHypopneaIndex != nil && *night.ApneaHypopneaIndex < 0 {
		night.ApneaHypopneaIndex = nil
	}

	// night_events：字符串形式需要反序列化，失败只产生 warning
	if events, eventErr := parseEvents(row); eventErr != nil {
		warn(id, "night_events", "unparseable night_events: "+eventErr.Error())
	} else {
		night.NightEvents = events
	}

	// 派生字段：规范化时按指标表一次性换算
	n.table.ApplyDerived(night)

	return night, warnings
}

// mergeNested 把 API 行的 data 子对象上提合并到顶层（顶层字段优先）
func mergeNested(row map[string]any) map[string]any {
	nested, ok := row["data"].(map[string]any)
	if !ok {
		return row
	}
	merged := make(map[string]any, len(row)+len(nested))
	for k, v := range nested {
		merged[k] = v
	}
	for k, v := range row {
		if k == "data" {
			continue
		}
		merged[k] = v
	}
	return merged
}

// parseEvents 解析 night_events 字段（序列化字符串或已结构化的 map）
func parseEvents(row map[string]any) (domain.NightEvents, error) {
	raw, ok := getValue(row, "night_events")
	if !ok {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return domain.ParseNightEvents(v)
	case map[string]any:
		// API 已解码为通用 map，经 JSON 转一轮落到强类型
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return domain.ParseNightEvents(string(b))
	case domain.NightEvents:
		return v, nil
	default:
		return nil, nil
	}
}

func floatField(row map[string]any, key string) *float64 {
	v, ok := getValue(row, key)
	if !ok {
		return nil
	}
	return toFloat(v)
}

func stringValue(row map[string]any, key string) string {
	v, ok := getValue(row, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
