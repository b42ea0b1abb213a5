package stats

// 严重度标签
const (
	SeverityNoneMinimal = "none/minimal"
	SeverityNone        = "none"
	SeverityMild        = "mild"
	SeverityModerate    = "moderate"
	SeverityHeavy       = "heavy"
	SeveritySevere      = "severe"
)

// ClassifyAHI AHI（次/小时）分级：≤5 none/minimal，≤15 mild，
// ≤30 moderate，>30 severe
func ClassifyAHI(v float64) string {
	switch {
	case v <= 5:
		return SeverityNoneMinimal
	case v <= 15:
		return SeverityMild
	case v <= 30:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// ClassifySnoringMinutes 打鼾分钟数分级：0 none，≤15 mild，
// ≤30 moderate，≤60 heavy，>60 severe
func ClassifySnoringMinutes(v float64) string {
	switch {
	case v == 0:
		return SeverityNone
	case v <= 15:
		return SeverityMild
	case v <= 30:
		return SeverityModerate
	case v <= 60:
		return SeverityHeavy
	default:
		return SeveritySevere
	}
}
