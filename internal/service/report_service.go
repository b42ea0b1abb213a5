// Package service 编排整条报告管线：抓取/导入 → 规范化 → 展开 →
// 清醒检测 → 时间线布局 → 统计，并返回图表渲染所需的全部结构化数据。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/domain"
	"github.com/lich472/withingsReport/internal/epoch"
	"github.com/lich472/withingsReport/internal/export"
	"github.com/lich472/withingsReport/internal/normalizer"
	"github.com/lich472/withingsReport/internal/repository"
	"github.com/lich472/withingsReport/internal/stats"
	"github.com/lich472/withingsReport/internal/store"
	"github.com/lich472/withingsReport/internal/timeline"
	"github.com/lich472/withingsReport/internal/wake"
)

// vendorClientInterface 厂家客户端接口（用于测试和扩展）
type vendorClientInterface interface {
	FetchSummaries(ctx context.Context, startYMD, endYMD string) ([]map[string]any, error)
	FetchAllSeries(ctx context.Context, nights []domain.NightSummary) ([]epoch.NightSeries, error)
}

// ReportService 报告数据集构建服务接口
type ReportService interface {
	// BuildReport 构建一次完整的报告数据集
	BuildReport(ctx context.Context, req BuildReportRequest) (*BuildReportResponse, error)
}

// reportService 实现
type reportService struct {
	client     vendorClientInterface         // 可为 nil（纯离线导入）
	kv         store.KV                      // 原始批次缓存，可为 nil
	nightsRepo repository.NightsRepository   // 可为 nil
	table      *domain.MetricTable
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(
	client *WithingsClient,
	kv store.KV,
	nightsRepo repository.NightsRepository,
	table *domain.MetricTable,
	cacheTTL time.Duration,
	logger *zap.Logger,
) ReportService {
	svc := &reportService{
		kv:         kv,
		nightsRepo: nightsRepo,
		table:      table,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
	if client != nil {
		svc.client = client
	}
	return svc
}

// ============================================
// Request/Response DTOs
// ============================================

// BuildReportRequest 报告构建请求
type BuildReportRequest struct {
	Label string // 分组标签（lab ID），附加到整批夜记录

	// 离线路径：调用方直接提供原始行（上传/再导入）；
	// 为空且配置了厂家客户端时走在线抓取。
	Rows   []map[string]any
	Series []epoch.NightSeries // 可选的细粒度分段（离线路径）

	// 在线抓取范围（YYYY-MM-DD）
	FetchStartYMD string
	FetchEndYMD   string
	FetchSeries   bool // 是否为每夜追加抓取细粒度序列

	// 工作集过滤
	RangeStart    time.Time // 零值 = 不按日期过滤
	RangeEnd      time.Time
	NapMinSeconds float64 // >0 时过滤在床时长低于该值的小睡

	ApplyTimezone bool // false 时所有当地时间投影锚定 UTC
	Persist       bool // 是否把规范化结果写入持久层
}

// BuildReportResponse 报告数据集（全部为数值/结构化数据，渲染在范围外）
type BuildReportResponse struct {
	RunID string `json:"run_id"`
	Shape string `json:"shape"` // 本批识别出的输入形状

	Nights   []domain.NightSummary          `json:"nights"`
	Samples  []domain.EpochSample           `json:"samples"`
	Episodes map[int64][]domain.WakeEpisode `json:"episodes"`
	Timing   []domain.TimingRecord          `json:"timing"`

	Charts map[int64][]export.ChartSeries `json:"charts"`
	Meta   map[int64]export.NightMeta     `json:"meta"`

	Aggregates []*domain.MetricAggregate         `json:"aggregates"`
	DayType    map[string]*stats.DayTypeAggregate `json:"day_type"`

	Warnings []normalizer.Warning `json:"warnings"`
}

// ============================================
// Service 方法实现
// ============================================

// BuildReport 构建一次完整的报告数据集
func (s *reportService) BuildReport(ctx context.Context, req BuildReportRequest) (*BuildReportResponse, error) {
	rows := req.Rows
	if rows == nil {
		if s.client == nil {
			return nil, fmt.Errorf("no input rows and no vendor client configured")
		}
		fetched, err := s.fetchSummaries(ctx, req)
		if err != nil {
			return nil, err
		}
		rows = fetched
	}

	shape, err := normalizer.DetectShape(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to detect input shape: %w", err)
	}

	norm := normalizer.New(s.table, s.logger)
	nights, warnings, err := norm.Normalize(rows, req.Label)
	if err != nil {
		return nil, err
	}
	nights = applyFilters(nights, req)

	series := req.Series
	if series == nil && req.FetchSeries && s.client != nil {
		if series, err = s.client.FetchAllSeries(ctx, nights); err != nil {
			return nil, fmt.Errorf("failed to fetch epoch series: %w", err)
		}
	}

	flattener := epoch.NewFlattener(s.logger)
	samples := flattener.Flatten(series)
	episodes := wake.DetectAll(nights, samples)

	builder := timeline.NewBuilder(req.ApplyTimezone, s.logger)
	timing := builder.Build(nights, episodes)

	engine := stats.NewEngine(s.table, req.ApplyTimezone, s.logger)
	aggregates := engine.AggregateAll(nights)
	dayType := make(map[string]*stats.DayTypeAggregate, len(s.table.Specs()))
	for _, spec := range s.table.Specs() {
		if agg, err := engine.AggregateByDayType(nights, spec.Field); err == nil {
			dayType[spec.Field] = agg
		}
	}

	if req.Persist && s.nightsRepo != nil {
		s.persistNights(ctx, nights)
	}

	response := &BuildReportResponse{
		RunID:      uuid.NewString(),
		Shape:      shape.String(),
		Nights:     nights,
		Samples:    samples,
		Episodes:   episodes,
		Timing:     timing,
		Charts:     export.BuildNightCharts(samples),
		Meta:       export.BuildNightMeta(nights, req.ApplyTimezone),
		Aggregates: aggregates,
		DayType:    dayType,
		Warnings:   warnings,
	}

	s.logger.Info("report dataset built",
		zap.String("run_id", response.RunID),
		zap.String("shape", response.Shape),
		zap.Int("night_count", len(nights)),
		zap.Int("sample_count", len(samples)),
		zap.Int("warning_count", len(warnings)),
	)
	return response, nil
}

// fetchSummaries 带缓存地抓取厂家汇总批次（避免限速窗口内重复抓取）
func (s *reportService) fetchSummaries(ctx context.Context, req BuildReportRequest) ([]map[string]any, error) {
	key := fmt.Sprintf("withings:summary:%s:%s:%s", req.Label, req.FetchStartYMD, req.FetchEndYMD)
	if s.kv != nil {
		if cached, err := s.kv.Get(ctx, key); err == nil {
			var rows []map[string]any
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				s.logger.Debug("summary batch served from cache", zap.String("key", key))
				return rows, nil
			}
		} else if err != store.ErrMiss {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	rows, err := s.client.FetchSummaries(ctx, req.FetchStartYMD, req.FetchEndYMD)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summaries: %w", err)
	}

	if s.kv != nil {
		if encoded, err := json.Marshal(rows); err == nil {
			if err := s.kv.Set(ctx, key, string(encoded), s.cacheTTL); err != nil {
				s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return rows, nil
}

func (s *reportService) persistNights(ctx context.Context, nights []domain.NightSummary) {
	for i := range nights {
		if err := s.nightsRepo.SaveNight(ctx, &nights[i]); err != nil {
			s.logger.Error("failed to persist night summary",
				zap.Int64("night_id", nights[i].ID),
				zap.Error(err),
			)
			// 持久化失败不影响报告数据集本身
			continue
		}
	}
}

// applyFilters 应用工作集过滤：记录从不被删除，只是被过滤出工作集。
// 日期范围过滤只作用于日期有效的记录；日期无效的记录保留在工作集里
// （它们只会被排除出按时间排序的视图）。
func applyFilters(nights []domain.NightSummary, req BuildReportRequest) []domain.NightSummary {
	filtered := make([]domain.NightSummary, 0, len(nights))
	for _, night := range nights {
		if night.DatesValid && !req.RangeStart.IsZero() && night.EndUTC.Before(req.RangeStart) {
			continue
		}
		if night.DatesValid && !req.RangeEnd.IsZero() && night.EndUTC.After(req.RangeEnd) {
			continue
		}
		// nap 过滤：在床时长低于门限的短睡不进入报告
		if req.NapMinSeconds > 0 && night.TotalTimeInBed != nil && *night.TotalTimeInBed < req.NapMinSeconds {
			continue
		}
		filtered = append(filtered, night)
	}
	return filtered
}
