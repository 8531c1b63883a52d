package app

import (
	"context"

	"github.com/LJTian/LiveNewsBoard/internal/aggregator"
	"github.com/LJTian/LiveNewsBoard/internal/classifier"
	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"github.com/LJTian/LiveNewsBoard/internal/config"
	"github.com/LJTian/LiveNewsBoard/internal/metrics"
	"github.com/LJTian/LiveNewsBoard/internal/processor"
	"github.com/LJTian/LiveNewsBoard/internal/quote"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// NewRedis 未配置 REDIS_ADDR 时返回 nil；连不上只告警，报价缓存会直接回源
func NewRedis(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) *redis.Client {
	if !cfg.CacheEnabled() {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, quote cache degraded")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

// NewQuoteProviders CoinGecko 优先，Binance 备用；启用 Redis 时外面再包一层缓存。
// 第二个返回值供定时预热使用，未启用缓存时为 nil。
func NewQuoteProviders(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (quote.Provider, *quote.Cache, error) {
	chain := quote.Chain{
		quote.NewCoinGecko(cfg.FetchTimeout),
		quote.NewBinance(cfg.FetchTimeout),
	}
	if rdb == nil {
		return chain, nil, nil
	}
	cache, err := quote.NewCache(chain, rdb, cfg.QuoteCacheTTL, log.With().Str("component", "quote_cache").Logger())
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

func NewClassifier(cfg *config.Config) (*classifier.Classifier, error) {
	table := classifier.DefaultTable()
	if cfg.ClassifierKeywordsFile != "" {
		t, err := classifier.LoadTable(cfg.ClassifierKeywordsFile)
		if err != nil {
			return nil, err
		}
		table = t
	}
	return classifier.New(table)
}

func NewProcessor(cfg *config.Config, c *classifier.Classifier, log zerolog.Logger) *processor.Processor {
	var t *processor.Translator
	if cfg.TranslateTitles {
		t = processor.NewTranslator(cfg.FetchTimeout, log)
	}
	return processor.NewProcessor(c, t)
}

// NewFetchers 需要密钥的数据源始终注册，缺少密钥时在结果里报告为 skipped
func NewFetchers(cfg *config.Config, log zerolog.Logger) []collector.Fetcher {
	fetchers := []collector.Fetcher{
		collector.NewCryptoCompareFetcher(cfg.CryptoCompareAPIKey, cfg.FetchTimeout),
		collector.NewNewsAPIFetcher(cfg.NewsAPIKey, cfg.NewsQuery, cfg.FetchTimeout),
		collector.NewFinnhubFetcher(cfg.FinnhubAPIKey, cfg.FetchTimeout),
	}
	if cfg.AShareEnabled {
		fetchers = append(fetchers, collector.NewAShareIndexFetcher(cfg.AShareStockCodes, cfg.FetchTimeout))
	}
	if len(cfg.RSSFeeds) > 0 {
		fetchers = append(fetchers, collector.NewRSSFetcher(cfg.RSSFeeds, cfg.FeedKeywords, cfg.FetchTimeout))
	}
	if cfg.ScrapeURL != "" {
		fetchers = append(fetchers, collector.NewWebHeadlinesFetcher(cfg.ScrapeURL, cfg.ScrapeSelector, cfg.FeedKeywords, cfg.FetchTimeout))
	}

	names := make([]string, 0, len(fetchers))
	for _, f := range fetchers {
		names = append(names, f.Name())
	}
	log.Info().Strs("sources", names).Msg("news sources registered")
	return fetchers
}

func NewPipeline(cfg *config.Config, fetchers []collector.Fetcher, quotes quote.Provider, proc *processor.Processor, log zerolog.Logger, m *metrics.Metrics) (*aggregator.Pipeline, error) {
	return aggregator.New(fetchers, quotes, proc, aggregator.Options{
		MinItems:             cfg.MinItems,
		MaxItems:             cfg.MaxItems,
		PerSourceQuota:       cfg.PerSourceQuota,
		IncludeHeadline:      cfg.IncludeHeadline,
		Parallel:             cfg.ParallelFetch,
		MaxConcurrentFetches: cfg.FetchConcurrency,
		Asset:                cfg.PriceAsset,
		DefaultQuote:         quote.Default(cfg.PriceAsset, cfg.DefaultPrice, cfg.DefaultChange),
	}, log, m)
}
