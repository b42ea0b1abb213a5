package epoch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/domain"
)

// Scenario B：hr={"100":60,"160":62}, rr={"100":14} → 两个样本，
// rr 在 ts=160 无观测 → nil
func TestFlatten_ReferenceFieldDefinesTimestampSet(t *testing.T) {
	nights := []NightSeries{{
		NightID: 1,
		Segments: []Segment{{
			State: domain.StageLight,
			Series: map[string]SparseSeries{
				"hr": {"100": 60, "160": 62},
				"rr": {"100": 14},
			},
		}},
	}}

	samples := NewFlattener(zap.NewNop()).Flatten(nights)
	require.Len(t, samples, 2)

	assert.Equal(t, time.Unix(100, 0).UTC(), samples[0].Timestamp)
	require.NotNil(t, samples[0].HR)
	assert.Equal(t, 60.0, *samples[0].HR)
	require.NotNil(t, samples[0].RR)
	assert.Equal(t, 14.0, *samples[0].RR)

	assert.Equal(t, time.Unix(160, 0).UTC(), samples[1].Timestamp)
	require.NotNil(t, samples[1].HR)
	assert.Equal(t, 62.0, *samples[1].HR)
	assert.Nil(t, samples[1].RR)
}

// 参考字段按声明顺序选取：hr 为空时落到 rr
func TestFlatten_ReferenceFieldDeclaredOrder(t *testing.T) {
	nights := []NightSeries{{
		NightID: 2,
		Segments: []Segment{{
			State: domain.StageDeep,
			Series: map[string]SparseSeries{
				"hr":      {},
				"rr":      {"200": 13, "260": 14},
				"snoring": {"320": 1},
			},
		}},
	}}

	samples := NewFlattener(zap.NewNop()).Flatten(nights)
	require.Len(t, samples, 2)
	// snoring 的 ts=320 不在参考字段（rr）的键集合里，不发射
	assert.Equal(t, time.Unix(200, 0).UTC(), samples[0].Timestamp)
	assert.Equal(t, time.Unix(260, 0).UTC(), samples[1].Timestamp)
	assert.Nil(t, samples[0].Snoring)
}

func TestFlatten_SegmentWithoutMetricsIsSkipped(t *testing.T) {
	nights := []NightSeries{{
		NightID: 3,
		Segments: []Segment{
			{State: domain.StageAwake, Series: map[string]SparseSeries{}},
			{State: domain.StageREM, Series: map[string]SparseSeries{"hr": {"500": 55}}},
		},
	}}

	samples := NewFlattener(zap.NewNop()).Flatten(nights)
	require.Len(t, samples, 1)
	assert.Equal(t, domain.StageREM, samples[0].State)
}

func TestFlatten_SamplesEmitSortedByTimestamp(t *testing.T) {
	nights := []NightSeries{{
		NightID: 4,
		Segments: []Segment{{
			State: domain.StageLight,
			Series: map[string]SparseSeries{
				"hr": {"900": 61, "100": 60, "500": 62},
			},
		}},
	}}

	samples := NewFlattener(zap.NewNop()).Flatten(nights)
	require.Len(t, samples, 3)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp))
	assert.True(t, samples[1].Timestamp.Before(samples[2].Timestamp))
}

func TestFlatten_NoCrossNightDeduplication(t *testing.T) {
	seg := Segment{
		State:  domain.StageLight,
		Series: map[string]SparseSeries{"hr": {"100": 60}},
	}
	nights := []NightSeries{
		{NightID: 5, Segments: []Segment{seg}},
		{NightID: 6, Segments: []Segment{seg}},
	}

	samples := NewFlattener(zap.NewNop()).Flatten(nights)
	require.Len(t, samples, 2)
	assert.Equal(t, int64(5), samples[0].NightID)
	assert.Equal(t, int64(6), samples[1].NightID)
}

func TestFlatten_EmptyInput(t *testing.T) {
	assert.Empty(t, NewFlattener(zap.NewNop()).Flatten(nil))
}
