package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/domain"
	"github.com/lich472/withingsReport/internal/epoch"
)

// WithingsResponse 厂家 API 响应外层
type WithingsResponse struct {
	Status int             `json:"status"`
	Error  string          `json:"error"`
	Body   json.RawMessage `json:"body"`
}

// WithingsClient 厂家 API 客户端。
// 抓取是顺序且限速的：分页请求之间插入固定延迟，避免触发厂家限流。
type WithingsClient struct {
	httpClient *resty.Client
	delay      time.Duration
	pageSize   int
	logger     *zap.Logger
}

// NewWithingsClient 创建厂家 API 客户端
func NewWithingsClient(baseURL, token string, delay time.Duration, pageSize int, logger *zap.Logger) *WithingsClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	return &WithingsClient{
		httpClient: client,
		delay:      delay,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// FetchSummaries 按日期范围抓取夜汇总行（API 形状的原始行）。
// 厂家按 offset 分页；顺序抓取直到 more=false。
func (c *WithingsClient) FetchSummaries(ctx context.Context, startYMD, endYMD string) ([]map[string]any, error) {
	var rows []map[string]any
	offset := 0
	for {
		var response WithingsResponse
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"action":       "getsummary",
				"startdateymd": startYMD,
				"enddateymd":   endYMD,
				"limit":        strconv.Itoa(c.pageSize),
				"offset":       strconv.Itoa(offset),
			}).
			SetResult(&response).
			Post("/v2/sleep")
		if err != nil {
			c.logger.Error("summary request failed",
				zap.Error(err),
				zap.Int("status_code", resp.StatusCode()),
			)
			return nil, fmt.Errorf("failed to call sleep summary API: %w", err)
		}
		if response.Status != 0 {
			return nil, fmt.Errorf("sleep summary API error: %s (status: %d)", response.Error, response.Status)
		}

		var body struct {
			Series []map[string]any `json:"series"`
			More   bool             `json:"more"`
			Offset int              `json:"offset"`
		}
		if err := json.Unmarshal(response.Body, &body); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary body: %w", err)
		}
		rows = append(rows, body.Series...)

		if !body.More {
			break
		}
		offset = body.Offset
		c.sleep(ctx)
	}

	c.logger.Info("fetched sleep summaries",
		zap.String("start", startYMD),
		zap.String("end", endYMD),
		zap.Int("row_count", len(rows)),
	)
	return rows, nil
}

// FetchNightSeries 抓取单夜的细粒度时间序列分段
func (c *WithingsClient) FetchNightSeries(ctx context.Context, night domain.NightSummary) ([]epoch.Segment, error) {
	var response WithingsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"action":      "get",
			"startdate":   strconv.FormatInt(night.StartUTC.Unix(), 10),
			"enddate":     strconv.FormatInt(night.EndUTC.Unix(), 10),
			"data_fields": "hr,rr,snoring,sdnn,rmssd,movement_score,chest_movement_rate,vendor_index,breathing_sounds",
		}).
		SetResult(&response).
		Post("/v2/sleep")
	if err != nil {
		c.logger.Error("series request failed",
			zap.Error(err),
			zap.Int64("night_id", night.ID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("failed to call sleep series API: %w", err)
	}
	if response.Status != 0 {
		return nil, fmt.Errorf("sleep series API error: %s (status: %d)", response.Error, response.Status)
	}

	var body struct {
		Series []map[string]any `json:"series"`
	}
	if err := json.Unmarshal(response.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series body: %w", err)
	}

	segments := make([]epoch.Segment, 0, len(body.Series))
	for _, item := range body.Series {
		segments = append(segments, parseSegment(item))
	}
	return segments, nil
}

// FetchAllSeries 为每个日期有效的夜顺序抓取分段（限速，请求间延迟）
func (c *WithingsClient) FetchAllSeries(ctx context.Context, nights []domain.NightSummary) ([]epoch.NightSeries, error) {
	series := make([]epoch.NightSeries, 0, len(nights))
	for i, night := range nights {
		if !night.DatesValid {
			continue
		}
		if i > 0 {
			c.sleep(ctx)
		}
		segments, err := c.FetchNightSeries(ctx, night)
		if err != nil {
			return nil, err
		}
		series = append(series, epoch.NightSeries{NightID: night.ID, Segments: segments})
	}
	return series, nil
}

func (c *WithingsClient) sleep(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.delay):
	}
}

// parseSegment 把 API 的分段对象解析为强类型 Segment
func parseSegment(item map[string]any) epoch.Segment {
	seg := epoch.Segment{Series: make(map[string]epoch.SparseSeries)}
	if state, ok := item["state"].(float64); ok {
		seg.State = domain.SleepStage(int(state))
	}
	for _, field := range domain.EpochMetricFields {
		raw, ok := item[field].(map[string]any)
		if !ok || len(raw) == 0 {
			continue
		}
		sparse := make(epoch.SparseSeries, len(raw))
		for ts, v := range raw {
			if f, ok := v.(float64); ok {
				sparse[ts] = f
			}
		}
		if len(sparse) > 0 {
			seg.Series[field] = sparse
		}
	}
	return seg
}
