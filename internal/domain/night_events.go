package domain

import "encoding/json"

// 夜间事件类型编码（厂家约定）
const (
	EventInBed    = "1" // 上床
	EventAsleep   = "2" // 入睡
	EventAwake    = "3" // 清醒
	EventOutOfBed = "4" // 离床
)

// NightEvents 夜间事件标记：事件类型 → Unix 时间戳列表
type NightEvents map[string][]int64

// ParseNightEvents 解析序列化的 night_events 字段（JSON 字符串）
// 解析失败返回 nil + error，调用方记录 warning 而非中断
func ParseNightEvents(raw string) (NightEvents, error) {
	if raw == "" {
		return nil, nil
	}
	var events NightEvents
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountOutOfBed 返回离床事件数量（nil 安全）
func (e NightEvents) CountOutOfBed() int {
	if e == nil {
		return 0
	}
	return len(e[EventOutOfBed])
}

// Serialize 序列化为 JSON 字符串（用于表格导出）
func (e NightEvents) Serialize() string {
	if e == nil {
		return ""
	}
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return string(b)
}
