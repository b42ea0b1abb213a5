// Package export 产出下游渲染所需的输出工件：NightSummary/EpochSample
// 表格导出（Excel）、再导入、按夜分组的图表描述结构与轻量元数据。
// 渲染本身不在范围内。
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lich472/withingsReport/internal/domain"
)

const (
	nightSheet = "Nights"
	epochSheet = "Epochs"
)

// NightColumns NightSummary 导出列（稳定顺序，规范 *_utc 日期列）。
// 导出后经 Canonical/Prefixed 表格路径再导入必须逐位还原数值字段。
var NightColumns = []string{
	"id", "timezone", "label", "startdate_utc", "enddate_utc",
	"total_timeinbed", "total_sleep_time",
	"lightsleepduration", "deepsleepduration", "remsleepduration",
	"waso", "durationtosleep", "durationtowakeup",
	"sleep_efficiency", "apnea_hypopnea_index", "snoring", "out_of_bed_count",
	"hr_min", "hr_average", "hr_max",
	"rr_min", "rr_average", "rr_max",
	"night_events",
}

// 再导入时按字符串保留的列；其余列解析为数值
var textColumns = map[string]bool{
	"timezone":      true,
	"label":         true,
	"startdate_utc": true,
	"enddate_utc":   true,
	"night_events":  true,
}

// EpochColumns EpochSample 导出的固定列清单
var EpochColumns = []string{
	"id", "timestamp", "state",
	"hr", "rr", "snoring", "sdnn", "rmssd",
	"movement_score", "chest_movement_rate", "vendor_index", "breathing_sounds",
}

// WriteNightSummaries 生成 NightSummary 行的 Excel 导出
func WriteNightSummaries(nights []domain.NightSummary) ([]byte, error) {
	f, err := newSheet(nightSheet, NightColumns)
	if err != nil {
		return nil, err
	}

	for i, night := range nights {
		row := []any{
			night.ID, night.Timezone, night.Label,
			dateCell(night.StartUTC), dateCell(night.EndUTC),
			numCell(night.TotalTimeInBed), numCell(night.TotalSleepTime),
			numCell(night.LightSeconds), numCell(night.DeepSeconds), numCell(night.RemSeconds),
			numCell(night.WASOSeconds), numCell(night.SleepLatency), numCell(night.WakeLatency),
			numCell(night.SleepEfficiency), numCell(night.ApneaHypopneaIndex),
			numCell(night.SnoringSeconds), numCell(night.OutOfBedCount),
			numCell(night.HRMin), numCell(night.HRAvg), numCell(night.HRMax),
			numCell(night.RRMin), numCell(night.RRAvg), numCell(night.RRMax),
			night.NightEvents.Serialize(),
		}
		if err := writeRow(f, nightSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return flush(f)
}

// WriteEpochSamples 生成 EpochSample 行的 Excel 导出（固定列清单）
func WriteEpochSamples(samples []domain.EpochSample) ([]byte, error) {
	f, err := newSheet(epochSheet, EpochColumns)
	if err != nil {
		return nil, err
	}

	for i, s := range samples {
		row := []any{s.NightID, s.Timestamp.UTC().Format(time.RFC3339), int(s.State)}
		for _, field := range domain.EpochMetricFields {
			row = append(row, numCell(s.EpochMetric(field)))
		}
		if err := writeRow(f, epochSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return flush(f)
}

// ReadNightRows 读取导出文件，还原为可直接喂给 Summary Normalizer
// 规范表格路径的原始行（数值列转回 float64，文本列保持字符串，
// 空单元格不产生键）。
func ReadNightRows(data []byte) ([]map[string]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(nightSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", nightSheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]map[string]any, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(map[string]any, len(header))
		for c, name := range header {
			if c >= len(cells) || cells[c] == "" {
				continue
			}
			cell := cells[c]
			if textColumns[name] {
				row[name] = cell
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				// 非数值内容原样保留，由 normalizer 标记为空值
				row[name] = cell
				continue
			}
			row[name] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func newSheet(name string, columns []string) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(name)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	for c, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(name, cell, col); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		_ = f.SetCellStyle(name, cell, cell, headerStyle)
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for c, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func flush(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	f.Close()
	return buf.Bytes(), nil
}

// dateCell 无效日期导出为空单元格（显式的 invalid-date 哨兵）
func dateCell(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func numCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
