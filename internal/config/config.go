package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// WithingsConfig 厂家 API 配置
type WithingsConfig struct {
	APIAddress   string        // 厂家 API 地址
	Token        string        // Bearer token
	RequestDelay time.Duration // 顺序抓取的请求间隔（限速）
	PageSize     int           // 单页最大记录数
}

// ReportConfig 报告运行参数
type ReportConfig struct {
	Label         string  // 分组标签（lab ID）
	ApplyTimezone bool    // false 时所有时间线投影锚定 UTC
	NapMinSeconds float64 // nap 过滤：在床时长低于该值的夜被过滤出工作集
	OutputDir     string  // 导出工件目录
}

// Config withings-report 配置
type Config struct {
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
		CacheTTL time.Duration // 原始批次缓存 TTL
	}
	Log struct {
		Level  string
		Format string
	}
	Withings WithingsConfig
	Report   ReportConfig
}

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{}

	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "withings_report")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.CacheTTL = time.Duration(parseInt(getEnv("REDIS_CACHE_TTL_MINUTES", "60"), 60)) * time.Minute

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 厂家 API 配置
	cfg.Withings.APIAddress = getEnv("WITHINGS_API_ADDRESS", "https://wbsapi.withings.net")
	cfg.Withings.Token = getEnv("WITHINGS_TOKEN", "")
	cfg.Withings.RequestDelay = time.Duration(parseInt(getEnv("WITHINGS_REQUEST_DELAY_MS", "1100"), 1100)) * time.Millisecond
	cfg.Withings.PageSize = parseInt(getEnv("WITHINGS_PAGE_SIZE", "300"), 300)

	// 报告运行参数
	cfg.Report.Label = getEnv("REPORT_LABEL", "")
	cfg.Report.ApplyTimezone = getEnv("REPORT_APPLY_TIMEZONE", "true") == "true"
	cfg.Report.NapMinSeconds = float64(parseInt(getEnv("REPORT_NAP_MIN_SECONDS", "10800"), 10800))
	cfg.Report.OutputDir = getEnv("REPORT_OUTPUT_DIR", "./out")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultValue
}
