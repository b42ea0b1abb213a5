package normalizer

import (
	"errors"
	"fmt"
)

// ColPrefix 表格导出所使用的固定两字符列前缀
// 带前缀的列与不带前缀的同名列含义相同；取值时优先不带前缀的列。
const ColPrefix = "w_"

// Shape 输入批次的形状（封闭 tagged-variant，整批探测一次）
type Shape int

const (
	// ShapeAPI 厂家 API 行：辅助指标位于嵌套的 data 子对象，需上提合并
	ShapeAPI Shape = iota
	// ShapePrefixedTabular 表格行：重复列带固定两字符前缀
	ShapePrefixedTabular
	// ShapeCanonicalTabular 表格行：已使用规范的 *_utc 日期列
	ShapeCanonicalTabular
)

func (s Shape) String() string {
	switch s {
	case ShapeAPI:
		return "api"
	case ShapePrefixedTabular:
		return "prefixed-tabular"
	case ShapeCanonicalTabular:
		return "canonical-tabular"
	default:
		return "unknown"
	}
}

// 致命配置错误：整批中止，无部分输出
var (
	ErrUnknownShape    = errors.New("unrecognized input shape")
	ErrMissingIDColumn = errors.New("missing required id column")
)

// DetectShape 对一批原始行探测一次形状。
// 无法识别的形状是致命配置错误（fail fast，不做逐字段猜测）。
// 空批次按规范表格处理，产出空集（零有效夜不是错误）。
func DetectShape(rows []map[string]any) (Shape, error) {
	if len(rows) == 0 {
		return ShapeCanonicalTabular, nil
	}

	probe := rows[0]
	has := func(key string) bool {
		_, ok := probe[key]
		return ok
	}

	var shape Shape
	switch {
	case has(ColPrefix + "startdate_utc"):
		shape = ShapePrefixedTabular
	case has("startdate_utc"):
		shape = ShapeCanonicalTabular
	case has("startdate"):
		shape = ShapeAPI
	default:
		return 0, fmt.Errorf("%w: no start-date column found in %d-column row", ErrUnknownShape, len(probe))
	}

	if !has("id") && !has(ColPrefix+"id") {
		return 0, fmt.Errorf("%w: batch shape %s", ErrMissingIDColumn, shape)
	}
	return shape, nil
}
