package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string
	LogLevel string
	GinMode  string

	// RedisAddr 为空时不启用报价缓存
	RedisAddr     string
	QuoteCacheTTL time.Duration
	QuoteWarmCron string

	PriceAsset    string
	DefaultPrice  float64
	DefaultChange float64

	MinItems         int
	MaxItems         int
	PerSourceQuota   int
	IncludeHeadline  bool
	ParallelFetch    bool
	FetchConcurrency int
	FetchTimeout     time.Duration

	NewsAPIKey          string
	NewsQuery           string
	CryptoCompareAPIKey string
	FinnhubAPIKey       string
	RSSFeeds            []string
	FeedKeywords        []string
	ScrapeURL           string
	ScrapeSelector      string
	AShareEnabled       bool
	// AShareStockCodes 除三大指数外额外关注的个股代码，如 600519
	AShareStockCodes []string

	ClassifierKeywordsFile string
	TranslateTitles        bool
	PageRefreshSeconds     int
}

// Load 先尝试加载 .env（不存在时忽略），再读取环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv 只读当前进程环境变量
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppPort:  getEnv("APP_PORT", "9000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		GinMode:  getEnv("GIN_MODE", "release"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		QuoteCacheTTL: getEnvDuration("QUOTE_CACHE_TTL", 60*time.Second),
		QuoteWarmCron: getEnv("QUOTE_WARM_CRON", "@every 30s"),

		PriceAsset:    getEnv("PRICE_ASSET", "bitcoin"),
		DefaultPrice:  getEnvFloat("DEFAULT_PRICE", 118590),
		DefaultChange: getEnvFloat("DEFAULT_CHANGE", 3.28),

		MinItems:         getEnvInt("MIN_ITEMS", 6),
		MaxItems:         getEnvInt("MAX_ITEMS", 8),
		PerSourceQuota:   getEnvInt("PER_SOURCE_QUOTA", 4),
		IncludeHeadline:  getEnvBool("INCLUDE_HEADLINE", true),
		ParallelFetch:    getEnvBool("PARALLEL_FETCH", false),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 4),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 8*time.Second),

		NewsAPIKey:          getEnv("NEWS_API_KEY", ""),
		NewsQuery:           getEnv("NEWS_QUERY", "bitcoin OR cryptocurrency"),
		CryptoCompareAPIKey: getEnv("CRYPTOCOMPARE_API_KEY", ""),
		FinnhubAPIKey:       getEnv("FINNHUB_API_KEY", ""),
		RSSFeeds:            getEnvList("RSS_FEEDS", nil),
		FeedKeywords:        getEnvList("FEED_KEYWORDS", nil),
		ScrapeURL:           getEnv("SCRAPE_URL", ""),
		ScrapeSelector:      getEnv("SCRAPE_SELECTOR", ""),
		AShareEnabled:       getEnvBool("ASHARE_ENABLED", true),
		AShareStockCodes:    getEnvList("ASHARE_STOCK_CODES", nil),

		ClassifierKeywordsFile: getEnv("CLASSIFIER_KEYWORDS_FILE", ""),
		TranslateTitles:        getEnvBool("TRANSLATE_TITLES", false),
		PageRefreshSeconds:     getEnvInt("PAGE_REFRESH_SECONDS", 120),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查数值边界
func (c *Config) Validate() error {
	var errs []error
	if c.MinItems < 1 {
		errs = append(errs, fmt.Errorf("MIN_ITEMS must be >= 1, got %d", c.MinItems))
	}
	if c.MaxItems < c.MinItems {
		errs = append(errs, fmt.Errorf("MAX_ITEMS (%d) must be >= MIN_ITEMS (%d)", c.MaxItems, c.MinItems))
	}
	if c.PerSourceQuota < 0 {
		errs = append(errs, fmt.Errorf("PER_SOURCE_QUOTA must be >= 0, got %d", c.PerSourceQuota))
	}
	if c.FetchConcurrency < 0 {
		errs = append(errs, fmt.Errorf("FETCH_CONCURRENCY must be >= 0, got %d", c.FetchConcurrency))
	}
	if c.DefaultPrice <= 0 || math.IsNaN(c.DefaultPrice) || math.IsInf(c.DefaultPrice, 0) {
		errs = append(errs, fmt.Errorf("DEFAULT_PRICE must be a positive number, got %v", c.DefaultPrice))
	}
	if math.IsNaN(c.DefaultChange) || math.IsInf(c.DefaultChange, 0) {
		errs = append(errs, fmt.Errorf("DEFAULT_CHANGE must be finite, got %v", c.DefaultChange))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be > 0, got %s", c.FetchTimeout))
	}
	if c.RedisAddr != "" && c.QuoteCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("QUOTE_CACHE_TTL must be > 0 when REDIS_ADDR is set, got %s", c.QuoteCacheTTL))
	}
	if c.PageRefreshSeconds < 0 {
		errs = append(errs, fmt.Errorf("PAGE_REFRESH_SECONDS must be >= 0, got %d", c.PageRefreshSeconds))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// CacheEnabled 配置了 Redis 才启用报价缓存和定时预热
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// 以下解析失败时都回退到默认值，不因为一个拼错的变量拒绝启动
func getEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return def
}

// getEnvDuration 支持 "30s" 这类写法，也接受纯数字（秒）
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// getEnvList 逗号分隔
func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
