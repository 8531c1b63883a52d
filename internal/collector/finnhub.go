package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubFetcher 通过 Finnhub 官方 SDK 拉取市场新闻（默认 crypto 分类），必须配置 key
type FinnhubFetcher struct {
	APIKey       string
	NewsCategory string
	// BaseURL 为空时使用 SDK 内置的 https://finnhub.io/api/v1
	BaseURL string
	Timeout time.Duration
}

func NewFinnhubFetcher(apiKey string, timeout time.Duration) *FinnhubFetcher {
	return &FinnhubFetcher{
		APIKey:       apiKey,
		NewsCategory: "crypto",
		Timeout:      timeoutOrDefault(timeout),
	}
}

func (f *FinnhubFetcher) api() *finnhub.DefaultApiService {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", f.APIKey)
	if f.BaseURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: f.BaseURL}}
	}
	return finnhub.NewAPIClient(cfg).DefaultApi
}

func (f *FinnhubFetcher) Name() string {
	return "finnhub"
}

func (f *FinnhubFetcher) Priority() int {
	return 30
}

func (f *FinnhubFetcher) Fetch(ctx context.Context, limit int) ([]NewsItem, error) {
	if !HasCredential(f.APIKey) {
		return nil, credentialMissing(f.Name())
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(f.Timeout))
	defer cancel()

	res, httpResp, err := f.api().MarketNews(ctx).Category(f.NewsCategory).Execute()
	if httpResp != nil && httpResp.Body != nil {
		defer httpResp.Body.Close()
	}
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	if httpResp != nil && httpResp.StatusCode >= 300 {
		return nil, unavailable(f.Name(), fmt.Errorf("unexpected status %d", httpResp.StatusCode))
	}

	results := make([]NewsItem, 0, len(res))
	for _, n := range res {
		if limit > 0 && len(results) >= limit {
			break
		}
		if n.Headline == nil {
			continue
		}
		title := strings.TrimSpace(*n.Headline)
		if title == "" {
			continue
		}
		item := NewsItem{
			Title:  title,
			Source: f.Name(),
		}
		if n.Url != nil {
			item.URL = *n.Url
		}
		if n.Datetime != nil && *n.Datetime > 0 {
			item.PublishedAt = time.Unix(*n.Datetime, 0)
		}
		results = append(results, item)
	}
	return results, nil
}
