// Package wake 在一夜的 epoch 样本中扫描持续的清醒/离床区间
// （管线第 3 阶段）。
package wake

import (
	"sort"
	"time"

	"github.com/lich472/withingsReport/internal/domain"
)

// MinEpisodeSeconds 保留 episode 的最小时长；更短的连续清醒段
// （包括传感器瞬时误报）被丢弃，不产生任何输出。
const MinEpisodeSeconds = 600

// Detect 对一夜做单次从左到右扫描，返回保留的清醒区间。
//
// 样本先按时间升序排序。连续 state==awake 的最大游程构成一个候选
// episode：起点是游程第一个样本的时间戳，暂定终点是最后一个连续清醒
// 样本的时间戳；若清醒样本一直延续到样本列表末尾，则以该夜自身的
// 结束时刻为终点。两端都裁剪进 [StartUTC, EndUTC]。
// 零保留 episode 的夜是合法的（常见情况）。
func Detect(night domain.NightSummary, samples []domain.EpochSample) []domain.WakeEpisode {
	if len(samples) == 0 || !night.DatesValid {
		return nil
	}

	sorted := make([]domain.EpochSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var episodes []domain.WakeEpisode
	runStart := -1
	for i, s := range sorted {
		if s.State == domain.StageAwake {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if ep, ok := buildEpisode(night, sorted[runStart].Timestamp, sorted[i-1].Timestamp); ok {
				episodes = append(episodes, ep)
			}
			runStart = -1
		}
	}
	// 清醒游程延续到列表末尾：以夜自身的结束时刻为暂定终点
	if runStart >= 0 {
		if ep, ok := buildEpisode(night, sorted[runStart].Timestamp, night.EndUTC); ok {
			episodes = append(episodes, ep)
		}
	}
	return episodes
}

// DetectAll 对多夜批量检测，结果按 NightID 分组
func DetectAll(nights []domain.NightSummary, samples []domain.EpochSample) map[int64][]domain.WakeEpisode {
	byNight := make(map[int64][]domain.EpochSample)
	for _, s := range samples {
		byNight[s.NightID] = append(byNight[s.NightID], s)
	}

	episodes := make(map[int64][]domain.WakeEpisode)
	for _, night := range nights {
		if eps := Detect(night, byNight[night.ID]); len(eps) > 0 {
			episodes[night.ID] = eps
		}
	}
	return episodes
}

// buildEpisode 裁剪端点并应用最小时长门限
func buildEpisode(night domain.NightSummary, start, end time.Time) (domain.WakeEpisode, bool) {
	if start.Before(night.StartUTC) {
		start = night.StartUTC
	}
	if end.After(night.EndUTC) {
		end = night.EndUTC
	}
	duration := int64(end.Sub(start) / time.Second)
	if duration < MinEpisodeSeconds {
		return domain.WakeEpisode{}, false
	}
	return domain.WakeEpisode{
		NightID:         night.ID,
		Start:           start,
		End:             end,
		DurationSeconds: duration,
	}, true
}
