package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lich472/withingsReport/internal/domain"
)

// NightsRepository 规范化夜记录的持久化接口
type NightsRepository interface {
	// SaveNight 写入/更新单条夜记录（以 night_id + label 为冲突键）
	SaveNight(ctx context.Context, night *domain.NightSummary) error
	// ListNights 按标签和 EndUTC 日期范围查询夜记录（EndUTC 升序）
	ListNights(ctx context.Context, label string, from, to time.Time) ([]domain.NightSummary, error)
}

// PostgresNightsRepository NightsRepository 的 PostgreSQL 实现
type PostgresNightsRepository struct {
	db *sql.DB
}

// NewPostgresNightsRepository 创建夜记录 Repository
func NewPostgresNightsRepository(db *sql.DB) *PostgresNightsRepository {
	return &PostgresNightsRepository{db: db}
}

// 确保实现了接口
var _ NightsRepository = (*PostgresNightsRepository)(nil)

// SaveNight 写入/更新单条夜记录
func (r *PostgresNightsRepository) SaveNight(ctx context.Context, night *domain.NightSummary) error {
	if night == nil {
		return fmt.Errorf("night is required")
	}

	query := `
		INSERT INTO night_summary (
			night_id, label, timezone, start_utc, end_utc, dates_valid,
			total_timeinbed, total_sleep_time,
			lightsleepduration, deepsleepduration, remsleepduration,
			waso, durationtosleep, durationtowakeup,
			sleep_efficiency, apnea_hypopnea_index, snoring, out_of_bed_count,
			hr_min, hr_average, hr_max, rr_min, rr_average, rr_max,
			night_events
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24,
			$25
		)
		ON CONFLICT (night_id, label) DO UPDATE SET
			timezone = EXCLUDED.timezone,
			start_utc = EXCLUDED.start_utc,
			end_utc = EXCLUDED.end_utc,
			dates_valid = EXCLUDED.dates_valid,
			total_timeinbed = EXCLUDED.total_timeinbed,
			total_sleep_time = EXCLUDED.total_sleep_time,
			lightsleepduration = EXCLUDED.lightsleepduration,
			deepsleepduration = EXCLUDED.deepsleepduration,
			remsleepduration = EXCLUDED.remsleepduration,
			waso = EXCLUDED.waso,
			durationtosleep = EXCLUDED.durationtosleep,
			durationtowakeup = EXCLUDED.durationtowakeup,
			sleep_efficiency = EXCLUDED.sleep_efficiency,
			apnea_hypopnea_index = EXCLUDED.apnea_hypopnea_index,
			snoring = EXCLUDED.snoring,
			out_of_bed_count = EXCLUDED.out_of_bed_count,
			hr_min = EXCLUDED.hr_min,
			hr_average = EXCLUDED.hr_average,
			hr_max = EXCLUDED.hr_max,
			rr_min = EXCLUDED.rr_min,
			rr_average = EXCLUDED.rr_average,
			rr_max = EXCLUDED.rr_max,
			night_events = EXCLUDED.night_events,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		night.ID, night.Label, night.Timezone,
		nullTime(night.StartUTC), nullTime(night.EndUTC), night.DatesValid,
		nullFloat(night.TotalTimeInBed), nullFloat(night.TotalSleepTime),
		nullFloat(night.LightSeconds), nullFloat(night.DeepSeconds), nullFloat(night.RemSeconds),
		nullFloat(night.WASOSeconds), nullFloat(night.SleepLatency), nullFloat(night.WakeLatency),
		nullFloat(night.SleepEfficiency), nullFloat(night.ApneaHypopneaIndex),
		nullFloat(night.SnoringSeconds), nullFloat(night.OutOfBedCount),
		nullFloat(night.HRMin), nullFloat(night.HRAvg), nullFloat(night.HRMax),
		nullFloat(night.RRMin), nullFloat(night.RRAvg), nullFloat(night.RRMax),
		night.NightEvents.Serialize(),
	)
	if err != nil {
		return fmt.Errorf("failed to save night summary: %w", err)
	}
	return nil
}

// ListNights 按标签和 EndUTC 日期范围查询夜记录
func (r *PostgresNightsRepository) ListNights(ctx context.Context, label string, from, to time.Time) ([]domain.NightSummary, error) {
	query := `
		SELECT
			night_id, label, COALESCE(timezone, ''),
			start_utc, end_utc, dates_valid,
			total_timeinbed, total_sleep_time,
			lightsleepduration, deepsleepduration, remsleepduration,
			waso, durationtosleep, durationtowakeup,
			sleep_efficiency, apnea_hypopnea_index, snoring, out_of_bed_count,
			hr_min, hr_average, hr_max, rr_min, rr_average, rr_max,
			COALESCE(night_events, '')
		FROM night_summary
		WHERE label = $1
		  AND end_utc >= $2
		  AND end_utc <= $3
		ORDER BY end_utc ASC
	`

	rows, err := r.db.QueryContext(ctx, query, label, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list night summaries: %w", err)
	}
	defer rows.Close()

	var nights []domain.NightSummary
	for rows.Next() {
		var night domain.NightSummary
		var start, end sql.NullTime
		var events string
		var fields [18]sql.NullFloat64
		if err := rows.Scan(
			&night.ID, &night.Label, &night.Timezone,
			&start, &end, &night.DatesValid,
			&fields[0], &fields[1], &fields[2], &fields[3], &fields[4],
			&fields[5], &fields[6], &fields[7], &fields[8], &fields[9],
			&fields[10], &fields[11],
			&fields[12], &fields[13], &fields[14], &fields[15], &fields[16], &fields[17],
			&events,
		); err != nil {
			return nil, fmt.Errorf("failed to scan night summary: %w", err)
		}
		if start.Valid {
			night.StartUTC = start.Time.UTC()
		}
		if end.Valid {
			night.EndUTC = end.Time.UTC()
		}
		night.TotalTimeInBed = floatPtr(fields[0])
		night.TotalSleepTime = floatPtr(fields[1])
		night.LightSeconds = floatPtr(fields[2])
		night.DeepSeconds = floatPtr(fields[3])
		night.RemSeconds = floatPtr(fields[4])
		night.WASOSeconds = floatPtr(fields[5])
		night.SleepLatency = floatPtr(fields[6])
		night.WakeLatency = floatPtr(fields[7])
		night.SleepEfficiency = floatPtr(fields[8])
		night.ApneaHypopneaIndex = floatPtr(fields[9])
		night.SnoringSeconds = floatPtr(fields[10])
		night.OutOfBedCount = floatPtr(fields[11])
		night.HRMin = floatPtr(fields[12])
		night.HRAvg = floatPtr(fields[13])
		night.HRMax = floatPtr(fields[14])
		night.RRMin = floatPtr(fields[15])
		night.RRAvg = floatPtr(fields[16])
		night.RRMax = floatPtr(fields[17])
		if parsed, err := domain.ParseNightEvents(events); err == nil {
			night.NightEvents = parsed
		}
		nights = append(nights, night)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate night summaries: %w", err)
	}
	return nights, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
