package domain

import "time"

// WakeEpisode 派生实体：一段持续的夜间清醒区间
// 两端已裁剪到 [NightSummary.StartUTC, NightSummary.EndUTC]；
// 保留的 episode 满足 DurationSeconds >= 600。按需重算，不独立持久化。
type WakeEpisode struct {
	NightID         int64     `json:"night_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds int64     `json:"duration_seconds"`
}
