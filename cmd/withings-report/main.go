package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/lich472/withingsReport/internal/config"
	"github.com/lich472/withingsReport/internal/database"
	"github.com/lich472/withingsReport/internal/domain"
	"github.com/lich472/withingsReport/internal/export"
	"github.com/lich472/withingsReport/internal/logger"
	"github.com/lich472/withingsReport/internal/repository"
	"github.com/lich472/withingsReport/internal/service"
	"github.com/lich472/withingsReport/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "withings-report")
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	// 进程级常量配置：启动时构建一次
	table := domain.NewMetricTable()

	var kv store.KV
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
		log.Info("raw batch cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var db *sql.DB
	var nightsRepo repository.NightsRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			nightsRepo = repository.NewPostgresNightsRepository(db)
			log.Info("DB enabled for withings-report")
		} else {
			log.Warn("DB enabled but connection failed, persistence disabled", zap.Error(err))
		}
	}

	var client *service.WithingsClient
	if cfg.Withings.Token != "" {
		client = service.NewWithingsClient(
			cfg.Withings.APIAddress,
			cfg.Withings.Token,
			cfg.Withings.RequestDelay,
			cfg.Withings.PageSize,
			log,
		)
	}

	svc := service.NewReportService(client, kv, nightsRepo, table, cfg.Redis.CacheTTL, log)

	// 抓取范围：默认最近 30 天
	endYMD := getEnv("REPORT_END_DATE", time.Now().Format("2006-01-02"))
	startYMD := getEnv("REPORT_START_DATE", time.Now().AddDate(0, 0, -30).Format("2006-01-02"))

	ctx := context.Background()
	req := service.BuildReportRequest{
		Label:         cfg.Report.Label,
		FetchStartYMD: startYMD,
		FetchEndYMD:   endYMD,
		FetchSeries:   true,
		NapMinSeconds: cfg.Report.NapMinSeconds,
		ApplyTimezone: cfg.Report.ApplyTimezone,
		Persist:       nightsRepo != nil,
	}

	// 离线路径：提供导入文件时不走厂家 API
	if importPath := os.Getenv("REPORT_IMPORT_FILE"); importPath != "" {
		data, err := os.ReadFile(importPath)
		if err != nil {
			log.Fatal("failed to read import file", zap.String("path", importPath), zap.Error(err))
		}
		rows, err := export.ReadNightRows(data)
		if err != nil {
			log.Fatal("failed to parse import file", zap.String("path", importPath), zap.Error(err))
		}
		req.Rows = rows
		req.FetchSeries = false
	}

	response, err := svc.BuildReport(ctx, req)
	if err != nil {
		log.Fatal("failed to build report dataset", zap.Error(err))
	}

	if err := writeArtifacts(cfg.Report.OutputDir, response); err != nil {
		log.Fatal("failed to write output artifacts", zap.Error(err))
	}

	log.Info("report artifacts written",
		zap.String("run_id", response.RunID),
		zap.String("dir", cfg.Report.OutputDir),
		zap.Int("nights", len(response.Nights)),
		zap.Int("warnings", len(response.Warnings)),
	)

	if db != nil {
		_ = db.Close()
	}
}

// writeArtifacts 落盘下游渲染所需的工件：夜汇总/epoch 表格导出
// 与完整数据集 JSON
func writeArtifacts(dir string, response *service.BuildReportResponse) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	nightsXLSX, err := export.WriteNightSummaries(response.Nights)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "nights.xlsx"), nightsXLSX, 0o644); err != nil {
		return err
	}

	epochsXLSX, err := export.WriteEpochSamples(response.Samples)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "epochs.xlsx"), epochsXLSX, 0o644); err != nil {
		return err
	}

	dataset, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "dataset.json"), dataset, 0o644)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
