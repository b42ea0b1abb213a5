package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/domain"
	"github.com/lich472/withingsReport/internal/normalizer"
)

func f(v float64) *float64 { return &v }

func sampleNight() domain.NightSummary {
	night := domain.NightSummary{
		ID:                 201,
		Timezone:           "Europe/Paris",
		Label:              "lab-a",
		StartUTC:           time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC),
		EndUTC:             time.Date(2023, 11, 15, 6, 0, 0, 0, time.UTC),
		DatesValid:         true,
		TotalTimeInBed:     f(28800),
		TotalSleepTime:     f(25200),
		LightSeconds:       f(14400),
		DeepSeconds:        f(7200),
		RemSeconds:         f(3600),
		WASOSeconds:        f(1800),
		SleepLatency:       f(1200),
		WakeLatency:        f(600),
		SleepEfficiency:    f(0.89),
		ApneaHypopneaIndex: f(3.7),
		SnoringSeconds:     f(960),
		HRMin:              f(48),
		HRAvg:              f(56.5),
		HRMax:              f(92),
		RRMin:              f(11),
		RRAvg:              f(13.2),
		RRMax:              f(17),
		NightEvents:        domain.NightEvents{domain.EventInBed: {1699999000}, domain.EventOutOfBed: {1700010000}},
	}
	domain.NewMetricTable().ApplyDerived(&night)
	return night
}

// 导出 → 规范表格路径再导入，数值字段必须逐位还原
func TestNightRoundTrip_CanonicalPath(t *testing.T) {
	original := sampleNight()

	data, err := WriteNightSummaries([]domain.NightSummary{original})
	require.NoError(t, err)

	rows, err := ReadNightRows(data)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	norm := normalizer.New(domain.NewMetricTable(), zap.NewNop())
	nights, warnings, err := norm.Normalize(rows, "lab-a")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, nights, 1)

	restored := nights[0]
	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Timezone, restored.Timezone)
	assert.Equal(t, original.StartUTC, restored.StartUTC)
	assert.Equal(t, original.EndUTC, restored.EndUTC)
	assert.Equal(t, *original.TotalTimeInBed, *restored.TotalTimeInBed)
	assert.Equal(t, *original.TotalSleepTime, *restored.TotalSleepTime)
	assert.Equal(t, *original.SleepEfficiency, *restored.SleepEfficiency)
	assert.Equal(t, *original.ApneaHypopneaIndex, *restored.ApneaHypopneaIndex)
	assert.Equal(t, *original.SnoringSeconds, *restored.SnoringSeconds)
	assert.Equal(t, *original.HRAvg, *restored.HRAvg)
	assert.Equal(t, *original.RRAvg, *restored.RRAvg)
	assert.Equal(t, original.NightEvents, restored.NightEvents)
}

// 导出 → 加前缀后走 Prefixed 表格路径再导入
func TestNightRoundTrip_PrefixedPath(t *testing.T) {
	original := sampleNight()

	data, err := WriteNightSummaries([]domain.NightSummary{original})
	require.NoError(t, err)
	rows, err := ReadNightRows(data)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	prefixed := make(map[string]any, len(rows[0]))
	for k, v := range rows[0] {
		prefixed[normalizer.ColPrefix+k] = v
	}

	norm := normalizer.New(domain.NewMetricTable(), zap.NewNop())
	nights, _, err := norm.Normalize([]map[string]any{prefixed}, "")
	require.NoError(t, err)
	require.Len(t, nights, 1)
	assert.Equal(t, original.ID, nights[0].ID)
	assert.Equal(t, *original.TotalSleepTime, *nights[0].TotalSleepTime)
	assert.Equal(t, *original.SleepEfficiency, *nights[0].SleepEfficiency)
}

func TestWriteNightSummaries_NilFieldsStayEmpty(t *testing.T) {
	night := domain.NightSummary{ID: 300, DatesValid: false}

	data, err := WriteNightSummaries([]domain.NightSummary{night})
	require.NoError(t, err)

	rows, err := ReadNightRows(data)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// 无效日期导出为空单元格，再导入时不产生键
	_, ok := rows[0]["startdate_utc"]
	assert.False(t, ok)
	_, ok = rows[0]["total_sleep_time"]
	assert.False(t, ok)
	assert.Equal(t, 300.0, rows[0]["id"])
}

func TestWriteEpochSamples_FixedColumnList(t *testing.T) {
	hr := 60.0
	samples := []domain.EpochSample{{
		NightID:   201,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		State:     domain.StageLight,
		HR:        &hr,
	}}

	data, err := WriteEpochSamples(samples)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Epochs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, EpochColumns, rows[0][:len(EpochColumns)])
	assert.Equal(t, "201", rows[1][0])
	assert.Equal(t, "1", rows[1][2]) // state=light
}
