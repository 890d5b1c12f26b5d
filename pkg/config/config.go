package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// RequireDatabase is false for offline commands (analyze --file)
	RequireDatabase bool

	// Redis
	Redis RedisConfig

	// Upstream fund data
	Eastmoney EastmoneyConfig

	// Caching
	Cache CacheConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Display labels / category taxonomy override (YAML)
	LabelsPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// EastmoneyConfig holds the fund data endpoints (天天基金 / 东方财富)
type EastmoneyConfig struct {
	HistoryURL     string // lsjz JSONP
	HistoryHTMLURL string // F10DataApi.aspx HTML table (fallback)
	EstimateURL    string // fundgz 실시간 추정가
	DetailURL      string // FundMNFInfo
	Fund123URL     string // 蚂蚁基金 queryFundInfo (빈 값이면 비활성)
	Referer        string
	UserAgent      string

	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	BatchLimit        int // 일괄 조회 최대 종목 수
	BatchConcurrency  int
}

// CacheConfig holds cache TTLs
type CacheConfig struct {
	QuoteTTL    time.Duration
	AnalysisTTL time.Duration
}

// SchedulerConfig holds cron schedules for background jobs
type SchedulerConfig struct {
	NavCollectionCron string // 평일 21:30 (기준가 공시 이후)
	CacheCleanupCron  string
	WatchedCodes      []string
	HistoryPageSize   int
	HistoryMaxPages   int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	return load(true)
}

// LoadOffline reads configuration without requiring DATABASE_URL
func LoadOffline() (*Config, error) {
	return load(false)
}

func load(requireDatabase bool) (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "fundlens"),
			User:            getEnv("DB_USER", "fundlens"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},
		RequireDatabase: requireDatabase,

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Upstream
		Eastmoney: EastmoneyConfig{
			HistoryURL:        getEnv("EASTMONEY_HISTORY_URL", "https://api.fund.eastmoney.com/f10/lsjz"),
			HistoryHTMLURL:    getEnv("EASTMONEY_HISTORY_HTML_URL", "https://fund.eastmoney.com/f10/F10DataApi.aspx"),
			EstimateURL:       getEnv("EASTMONEY_ESTIMATE_URL", "https://fundgz.1234567.com.cn/js"),
			DetailURL:         getEnv("EASTMONEY_DETAIL_URL", "https://fundmobapi.eastmoney.com/FundMNewApi/FundMNFInfo"),
			Fund123URL:        getEnv("FUND123_URL", "https://www.fund123.cn/api/fund/queryFundInfo"),
			Referer:           getEnv("EASTMONEY_REFERER", "https://fund.eastmoney.com/"),
			UserAgent:         getEnv("EASTMONEY_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			Timeout:           getEnvAsDuration("EASTMONEY_TIMEOUT", "10s"),
			MaxRetries:        getEnvAsInt("EASTMONEY_MAX_RETRIES", 2),
			RequestsPerSecond: getEnvAsFloat("EASTMONEY_RPS", 5),
			BatchLimit:        getEnvAsInt("EASTMONEY_BATCH_LIMIT", 50),
			BatchConcurrency:  getEnvAsInt("EASTMONEY_BATCH_CONCURRENCY", 10),
		},

		// Caching
		Cache: CacheConfig{
			QuoteTTL:    getEnvAsDuration("QUOTE_CACHE_TTL", "30s"),
			AnalysisTTL: getEnvAsDuration("ANALYSIS_CACHE_TTL", "10m"),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			NavCollectionCron: getEnv("NAV_COLLECTION_CRON", "0 30 21 * * 1-5"),
			CacheCleanupCron:  getEnv("CACHE_CLEANUP_CRON", "0 * * * * *"),
			WatchedCodes:      getEnvAsList("WATCHED_CODES"),
			HistoryPageSize:   getEnvAsInt("HISTORY_PAGE_SIZE", 20),
			HistoryMaxPages:   getEnvAsInt("HISTORY_MAX_PAGES", 50),
		},

		LabelsPath: getEnv("LABELS_PATH", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required unless running offline
	if c.RequireDatabase && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Eastmoney.BatchLimit <= 0 || c.Eastmoney.BatchConcurrency <= 0 {
		return fmt.Errorf("EASTMONEY_BATCH_LIMIT and EASTMONEY_BATCH_CONCURRENCY must be positive")
	}

	if c.Eastmoney.RequestsPerSecond <= 0 {
		return fmt.Errorf("EASTMONEY_RPS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",    // Current directory
		"../.env", // From cmd/fundlens
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
