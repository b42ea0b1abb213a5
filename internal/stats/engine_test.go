package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(domain.NewMetricTable(), false, zap.NewNop())
}

func nightsWithAHI(values ...float64) []domain.NightSummary {
	nights := make([]domain.NightSummary, len(values))
	for i := range values {
		v := values[i]
		nights[i] = domain.NightSummary{ID: int64(i + 1), ApneaHypopneaIndex: &v, DatesValid: true}
	}
	return nights
}

// Scenario E：AHI [2,10,22,40] → none/minimal, mild, moderate, severe
func TestClassifyAHI_Bands(t *testing.T) {
	assert.Equal(t, SeverityNoneMinimal, ClassifyAHI(2))
	assert.Equal(t, SeverityMild, ClassifyAHI(10))
	assert.Equal(t, SeverityModerate, ClassifyAHI(22))
	assert.Equal(t, SeveritySevere, ClassifyAHI(40))
	// 边界含等号
	assert.Equal(t, SeverityNoneMinimal, ClassifyAHI(5))
	assert.Equal(t, SeverityMild, ClassifyAHI(15))
	assert.Equal(t, SeverityModerate, ClassifyAHI(30))
}

func TestClassifySnoringMinutes_Bands(t *testing.T) {
	assert.Equal(t, SeverityNone, ClassifySnoringMinutes(0))
	assert.Equal(t, SeverityMild, ClassifySnoringMinutes(10))
	assert.Equal(t, SeverityModerate, ClassifySnoringMinutes(30))
	assert.Equal(t, SeverityHeavy, ClassifySnoringMinutes(45))
	assert.Equal(t, SeveritySevere, ClassifySnoringMinutes(90))
}

func TestAggregate_MeanStdMinMax(t *testing.T) {
	agg, err := newTestEngine().Aggregate(nightsWithAHI(2, 10, 22, 40), "apnea_hypopnea_index")
	require.NoError(t, err)

	assert.Equal(t, 4, agg.Count)
	assert.InDelta(t, 18.5, agg.Mean, 1e-9)
	// 总体标准差（除以 N）
	want := math.Sqrt(((2-18.5)*(2-18.5) + (10-18.5)*(10-18.5) + (22-18.5)*(22-18.5) + (40-18.5)*(40-18.5)) / 4)
	assert.InDelta(t, want, agg.Std, 1e-9)
	assert.Equal(t, 2.0, agg.Min)
	assert.Equal(t, 40.0, agg.Max)
	assert.Equal(t, SeverityModerate, agg.Severity)
	assert.Equal(t, "events/h", agg.Unit)
}

func TestAggregate_UnitConversion(t *testing.T) {
	tst := 25200.0 // 秒
	snore := 900.0 // 秒
	eff := 0.89
	nights := []domain.NightSummary{{
		ID: 1, DatesValid: true,
		TotalSleepTime:  &tst,
		SnoringSeconds:  &snore,
		SleepEfficiency: &eff,
	}}
	engine := newTestEngine()

	agg, err := engine.Aggregate(nights, "total_sleep_time")
	require.NoError(t, err)
	assert.InDelta(t, 7.0, agg.Mean, 1e-9)
	assert.Equal(t, "h", agg.Unit)

	agg, err = engine.Aggregate(nights, "snoring")
	require.NoError(t, err)
	assert.InDelta(t, 15.0, agg.Mean, 1e-9)
	assert.Equal(t, "min", agg.Unit)
	assert.Equal(t, SeverityMild, agg.Severity)

	agg, err = engine.Aggregate(nights, "sleep_efficiency")
	require.NoError(t, err)
	assert.InDelta(t, 89.0, agg.Mean, 1e-9)
	assert.Equal(t, "%", agg.Unit)
}

func TestAggregate_NullValuesDropped(t *testing.T) {
	v := 8.0
	nights := []domain.NightSummary{
		{ID: 1, ApneaHypopneaIndex: &v, DatesValid: true},
		{ID: 2, ApneaHypopneaIndex: nil, DatesValid: true},
	}

	agg, err := newTestEngine().Aggregate(nights, "apnea_hypopnea_index")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Count)
	assert.Equal(t, 8.0, agg.Mean)
}

// 空集合约定：均值为 0，min/max 不计算
func TestAggregate_EmptySet(t *testing.T) {
	agg, err := newTestEngine().Aggregate(nil, "apnea_hypopnea_index")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.Count)
	assert.Equal(t, 0.0, agg.Mean)
	assert.Equal(t, 0.0, agg.Std)
	assert.Empty(t, agg.Severity)
}

func TestAggregate_UnknownFieldIsError(t *testing.T) {
	_, err := newTestEngine().Aggregate(nil, "no_such_field")
	assert.Error(t, err)
}

func TestAggregateByDayType_Partitions(t *testing.T) {
	weekdayAHI := 10.0
	weekendAHI := 30.0
	nights := []domain.NightSummary{
		{ // 2024-01-16 周二
			ID: 1, DatesValid: true,
			EndUTC:             time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC),
			ApneaHypopneaIndex: &weekdayAHI,
		},
		{ // 2024-01-20 周六
			ID: 2, DatesValid: true,
			EndUTC:             time.Date(2024, 1, 20, 6, 0, 0, 0, time.UTC),
			ApneaHypopneaIndex: &weekendAHI,
		},
		{ID: 3, DatesValid: false}, // 日期无效，不进入任何分区
	}

	agg, err := newTestEngine().AggregateByDayType(nights, "apnea_hypopnea_index")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Weekday.Count)
	assert.Equal(t, 10.0, agg.Weekday.Mean)
	assert.Equal(t, 1, agg.Weekend.Count)
	assert.Equal(t, 30.0, agg.Weekend.Mean)
}

func TestPartitionByDayType_LocalWeekday(t *testing.T) {
	// 2024-01-20 01:00 UTC 在 America/New_York 是周五晚 → weekday
	nights := []domain.NightSummary{{
		ID: 1, DatesValid: true,
		Timezone: "America/New_York",
		EndUTC:   time.Date(2024, 1, 20, 1, 0, 0, 0, time.UTC),
	}}

	engine := NewEngine(domain.NewMetricTable(), true, zap.NewNop())
	weekday, weekend := engine.PartitionByDayType(nights)
	assert.Len(t, weekday, 1)
	assert.Empty(t, weekend)

	// 不应用时区时同一时刻按 UTC 算周六 → weekend
	weekday, weekend = newTestEngine().PartitionByDayType(nights)
	assert.Empty(t, weekday)
	assert.Len(t, weekend, 1)
}

func TestAggregateAll_CoversTable(t *testing.T) {
	aggregates := newTestEngine().AggregateAll(nightsWithAHI(5))
	require.NotEmpty(t, aggregates)
	fields := make(map[string]bool, len(aggregates))
	for _, agg := range aggregates {
		fields[agg.Field] = true
	}
	assert.True(t, fields["apnea_hypopnea_index"])
	assert.True(t, fields["total_sleep_time"])
	assert.True(t, fields["sleep_efficiency"])
}
