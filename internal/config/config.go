package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	CronSpec string
	LogLevel string

	// 全站 Basic Auth，两者都配置时启用（/health 除外）
	BasicAuthUser string
	BasicAuthPass string

	NewsAPIKey    string
	GNewsAPIKey   string
	TheNewsAPIKey string

	EnableRSS        bool
	EnableNewsAPI    bool
	EnableGNews      bool
	EnableTheNewsAPI bool
	APIPageSize      int

	SourceItemCap int
	BiasItemCap   int
	KeywordLimit  int

	MaxConcurrentFetches int
	HostRPS              float64
	HostBurst            int

	// 分类表覆盖文件，为空使用内置表
	ClassifierTables string
}

// Load 读取环境变量；当前目录存在 .env 时先加载它（已设置的环境变量优先）
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "9000"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=newsspectrum password=newsspectrum dbname=newsspectrum port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		CronSpec:    getEnv("CRON_SPEC", "*/30 * * * *"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),

		NewsAPIKey:    getEnv("NEWS_API_KEY", ""),
		GNewsAPIKey:   getEnv("GNEWS_API_KEY", ""),
		TheNewsAPIKey: getEnv("THE_NEWS_API_KEY", ""),

		EnableRSS:        getEnvBool("ENABLE_RSS", true),
		EnableNewsAPI:    getEnvBool("ENABLE_NEWSAPI", true),
		EnableGNews:      getEnvBool("ENABLE_GNEWS", true),
		EnableTheNewsAPI: getEnvBool("ENABLE_THENEWSAPI", true),
		APIPageSize:      getEnvInt("API_PAGE_SIZE", 10),

		SourceItemCap: getEnvInt("SOURCE_ITEM_CAP", 30),
		BiasItemCap:   getEnvInt("BIAS_ITEM_CAP", 100),
		KeywordLimit:  getEnvInt("KEYWORD_LIMIT", 15),

		MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", 0),
		HostRPS:              getEnvFloat("HOST_RPS", 2),
		HostBurst:            getEnvInt("HOST_BURST", 2),

		ClassifierTables: getEnv("CLASSIFIER_TABLES", ""),
	}
	return cfg
}

// Fields 启动日志用的摘要，不包含密钥
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.AppPort),
		zap.String("cron", c.CronSpec),
		zap.Bool("rss", c.EnableRSS),
		zap.Bool("newsapi", c.EnableNewsAPI && c.NewsAPIKey != ""),
		zap.Bool("gnews", c.EnableGNews && c.GNewsAPIKey != ""),
		zap.Bool("thenewsapi", c.EnableTheNewsAPI && c.TheNewsAPIKey != ""),
		zap.Int("source_cap", c.SourceItemCap),
		zap.Int("bias_cap", c.BiasItemCap),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}
