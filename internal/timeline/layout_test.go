package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/domain"
)

func TestMinutesFromNoon_Range(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         int
	}{
		{12, 0, 0},    // 当地正午 = 0
		{0, 0, 720},   // 当地午夜 = 720
		{23, 0, 660},  // 23:00
		{7, 0, 1140},  // 07:00
		{11, 59, 1439},
	}
	for _, tc := range cases {
		ts := time.Date(2024, 1, 15, tc.hour, tc.minute, 0, 0, time.UTC)
		got := MinutesFromNoon(ts, time.UTC)
		assert.Equal(t, tc.want, got)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, 1440)
	}
}

func TestMinutesFromNoon_AppliesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 2024-01-15 02:00 UTC = 前一天 21:00 EST
	ts := time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, 540, MinutesFromNoon(ts, loc))
}

// Scenario D：当地 23:00 开始、次日 07:00 结束 → base=660，
// 原始 end=1140（1140 > 660 无需回绕）→ duration=480
func TestBuild_NightWithinSameAxis(t *testing.T) {
	nights := []domain.NightSummary{{
		ID:         1,
		StartUTC:   time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC),
		EndUTC:     time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC),
		DatesValid: true,
	}}

	records := NewBuilder(false, zap.NewNop()).Build(nights, nil)
	require.Len(t, records, 1)
	assert.Equal(t, 660, records[0].BaseMinutes)
	assert.Equal(t, 480, records[0].DurationMinutes)
	assert.Equal(t, "2024-01-16", records[0].Label)
}

// 结束值跨过 1440 分钟回绕点：条件性 +1440
func TestBuild_WrapAdjustment(t *testing.T) {
	// 13:00 → 次日 12:30：base=60，raw end=30 < base → 30+1440-60=1410
	nights := []domain.NightSummary{{
		ID:         2,
		StartUTC:   time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC),
		EndUTC:     time.Date(2024, 1, 16, 12, 30, 0, 0, time.UTC),
		DatesValid: true,
	}}

	records := NewBuilder(false, zap.NewNop()).Build(nights, nil)
	require.Len(t, records, 1)
	assert.Equal(t, 60, records[0].BaseMinutes)
	assert.Equal(t, 1410, records[0].DurationMinutes)
	assert.Positive(t, records[0].DurationMinutes)
}

func TestBuild_SortedByEndUTC(t *testing.T) {
	nights := []domain.NightSummary{
		{ID: 2, StartUTC: time.Date(2024, 1, 16, 22, 0, 0, 0, time.UTC), EndUTC: time.Date(2024, 1, 17, 6, 0, 0, 0, time.UTC), DatesValid: true},
		{ID: 1, StartUTC: time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC), EndUTC: time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC), DatesValid: true},
	}

	records := NewBuilder(false, zap.NewNop()).Build(nights, nil)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].NightID)
	assert.Equal(t, int64(2), records[1].NightID)
}

func TestBuild_InvalidDatesExcluded(t *testing.T) {
	nights := []domain.NightSummary{
		{ID: 1, DatesValid: false},
		{ID: 2, StartUTC: time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC), EndUTC: time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC), DatesValid: true},
	}

	records := NewBuilder(false, zap.NewNop()).Build(nights, nil)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].NightID)
}

func TestBuild_WakeSpansProjectedOnSameAxis(t *testing.T) {
	start := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)
	nights := []domain.NightSummary{{ID: 1, StartUTC: start, EndUTC: end, DatesValid: true}}
	episodes := map[int64][]domain.WakeEpisode{
		1: {{
			NightID: 1,
			// 02:00–02:20，跨过午夜回绕点
			Start:           time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC),
			End:             time.Date(2024, 1, 16, 2, 20, 0, 0, time.UTC),
			DurationSeconds: 1200,
		}},
	}

	records := NewBuilder(false, zap.NewNop()).Build(nights, episodes)
	require.Len(t, records, 1)
	require.Len(t, records[0].WakeSpans, 1)
	// base=660；02:00 → 840，840 ≥ 660 无需修正 → offset=180
	assert.Equal(t, 180, records[0].WakeSpans[0].OffsetMinutes)
	assert.Equal(t, 20, records[0].WakeSpans[0].DurationMinutes)
}

func TestBuild_AnnotationsCopiedFromSummary(t *testing.T) {
	ahi := 12.0
	snoringMin := 25.0
	latencyMin := 18.0
	efficiency := 89.0
	nights := []domain.NightSummary{{
		ID:                     1,
		StartUTC:               time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC),
		EndUTC:                 time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC),
		DatesValid:             true,
		ApneaHypopneaIndex:     &ahi,
		SnoringMinutes:         &snoringMin,
		SleepLatencyMinutes:    &latencyMin,
		SleepEfficiencyPercent: &efficiency,
		NightEvents:            domain.NightEvents{domain.EventOutOfBed: {1, 2, 3}},
	}}

	records := NewBuilder(false, zap.NewNop()).Build(nights, nil)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, 3, record.OutOfBedCount)
	assert.Equal(t, &ahi, record.AHI)
	assert.Equal(t, 18.0, record.LatencyMinutes)
	assert.Equal(t, &efficiency, record.EfficiencyPercent)
}
