package domain

// MetricAggregate 在选定的夜集合上对单个指标的汇总统计。
// 标准差为总体标准差（除以 N 而非 N-1）。
// 空集合约定：Count=0，Mean=0，Std/Min/Max 为零值且不参与显示。
type MetricAggregate struct {
	Field       string  `json:"field"`
	DisplayName string  `json:"display_name"`
	Unit        string  `json:"unit"`
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Severity    string  `json:"severity,omitempty"` // 仅 AHI/打鼾等定义了分级的字段
}
