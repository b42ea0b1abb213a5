package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// getValue 取原始行的字段值：优先不带前缀的列，其次带前缀的同名列
func getValue(row map[string]any, key string) (any, bool) {
	if v, ok := row[key]; ok && v != nil {
		return v, true
	}
	if v, ok := row[ColPrefix+key]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// toFloat 仅接受真正的数值类型；字符串和其他类型返回 nil
// （派生字段只在来源值是数值时计算）
func toFloat(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case float32:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// 可识别的 ISO 风格日期布局（依次尝试）
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate 解析日期：数值按 epoch 秒，字符串按 ISO 风格布局。
// 解析失败返回 (零值, false)，行保留但排除出按时间排序的视图。
func parseDate(v any) (time.Time, bool) {
	if f := toFloat(v); f != nil {
		return time.Unix(int64(*f), 0).UTC(), true
	}

	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// 字符串形式的 epoch 秒（表格再导入路径）
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
