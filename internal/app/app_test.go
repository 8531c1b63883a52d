package app

import (
	"testing"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/aggregator"
	"github.com/LJTian/LiveNewsBoard/internal/config"
	"github.com/LJTian/LiveNewsBoard/internal/quote"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestCreateAppGraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(CreateApp()))
}

func TestCoreBuildsPipeline(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MIN_ITEMS", "6")
	t.Setenv("MAX_ITEMS", "8")

	var p *aggregator.Pipeline
	app := fxtest.New(t, Core(), fx.NopLogger, fx.Populate(&p))
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, p)
	names := map[string]bool{}
	for _, f := range p.Fetchers() {
		names[f.Name()] = true
	}
	assert.True(t, names["cryptocompare"])
	assert.True(t, names["newsapi"])
}

func TestNewFetchersFollowsConfig(t *testing.T) {
	cfg := &config.Config{FetchTimeout: time.Second}
	assert.Len(t, NewFetchers(cfg, zerolog.Nop()), 3)

	cfg.AShareEnabled = true
	cfg.RSSFeeds = []string{"https://feeds.example/a.xml"}
	cfg.ScrapeURL = "https://news.example"
	fetchers := NewFetchers(cfg, zerolog.Nop())
	require.Len(t, fetchers, 6)
	assert.Equal(t, "web_headlines", fetchers[5].Name())
}

func TestQuoteProvidersUseCacheWhenRedisConfigured(t *testing.T) {
	cfg := &config.Config{FetchTimeout: time.Second, QuoteCacheTTL: time.Minute}

	p, cache, err := NewQuoteProviders(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.IsType(t, quote.Chain{}, p)

	mr := miniredis.RunT(t)
	cfg.RedisAddr = mr.Addr()
	lc := fxtest.NewLifecycle(t)
	rdb := NewRedis(lc, cfg, zerolog.Nop())
	require.NotNil(t, rdb)
	lc.RequireStart()
	defer lc.RequireStop()

	p, cache, err = NewQuoteProviders(cfg, rdb, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Same(t, cache, p)
}

func TestClassifierFromMissingFile(t *testing.T) {
	_, err := NewClassifier(&config.Config{ClassifierKeywordsFile: "/nonexistent/keywords.yaml"})
	assert.Error(t, err)
}
