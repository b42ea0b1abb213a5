package domain

import "time"

// SleepStage 睡眠阶段编码
// 0=清醒, 1=浅睡眠, 2=深睡眠, 3=REM睡眠（与厂家设备编码一致）
type SleepStage int

const (
	StageAwake SleepStage = 0
	StageLight SleepStage = 1
	StageDeep  SleepStage = 2
	StageREM   SleepStage = 3
)

// String 阶段显示名
func (s SleepStage) String() string {
	switch s {
	case StageAwake:
		return "Awake"
	case StageLight:
		return "Light sleep"
	case StageDeep:
		return "Deep sleep"
	case StageREM:
		return "REM sleep"
	default:
		return "Unknown"
	}
}

// EpochSample 夜内一个带时间戳的细粒度观测
// 由 Epoch Flattener 创建，不可变，只存活于单次报告/分析运行。
// 通过 NightID 与唯一一条 NightSummary 关联；没有 epoch 数据的夜是合法的。
type EpochSample struct {
	NightID   int64      `json:"night_id"`
	Timestamp time.Time  `json:"timestamp"` // UTC 时刻
	State     SleepStage `json:"state"`

	// 稀疏指标：该时间戳无观测时为 nil
	HR                *float64 `json:"hr"`                  // 心率
	RR                *float64 `json:"rr"`                  // 呼吸率
	Snoring           *float64 `json:"snoring"`             // 打鼾
	SDNN              *float64 `json:"sdnn"`                // HRV: SDNN
	RMSSD             *float64 `json:"rmssd"`               // HRV: RMSSD
	MovementScore     *float64 `json:"movement_score"`      // 体动评分
	ChestMovementRate *float64 `json:"chest_movement_rate"` // 胸部运动频率
	VendorIndex       *float64 `json:"vendor_index"`        // 厂家睡眠质量指数
	BreathingSounds   *float64 `json:"breathing_sounds"`    // 呼吸音强度
}

// EpochMetricFields 已知指标字段的显式有序列表。
// Flattener 的参考字段选取、时间戳并集展开和导出列顺序都以它为准，
// 与 map 键枚举顺序无关（确定性）。
var EpochMetricFields = []string{
	"hr",
	"rr",
	"snoring",
	"sdnn",
	"rmssd",
	"movement_score",
	"chest_movement_rate",
	"vendor_index",
	"breathing_sounds",
}

// EpochMetric 按字段名访问样本指标（导出与图表构建共用）
func (s *EpochSample) EpochMetric(field string) *float64 {
	switch field {
	case "hr":
		return s.HR
	case "rr":
		return s.RR
	case "snoring":
		return s.Snoring
	case "sdnn":
		return s.SDNN
	case "rmssd":
		return s.RMSSD
	case "movement_score":
		return s.MovementScore
	case "chest_movement_rate":
		return s.ChestMovementRate
	case "vendor_index":
		return s.VendorIndex
	case "breathing_sounds":
		return s.BreathingSounds
	default:
		return nil
	}
}

// SetEpochMetric 按字段名写入样本指标（仅 Flattener 使用）
func (s *EpochSample) SetEpochMetric(field string, v *float64) {
	switch field {
	case "hr":
		s.HR = v
	case "rr":
		s.RR = v
	case "snoring":
		s.Snoring = v
	case "sdnn":
		s.SDNN = v
	case "rmssd":
		s.RMSSD = v
	case "movement_score":
		s.MovementScore = v
	case "chest_movement_rate":
		s.ChestMovementRate = v
	case "vendor_index":
		s.VendorIndex = v
	case "breathing_sounds":
		s.BreathingSounds = v
	}
}
