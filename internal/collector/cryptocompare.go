package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	cryptoCompareBaseURL          = "https://min-api.cryptocompare.com/data/v2/news/"
	cryptoCompareMaxResponseBytes = 2 << 20 // 2MB
)

// CryptoCompareFetcher 通过 CryptoCompare 新闻接口拉取加密货币资讯，key 可选
type CryptoCompareFetcher struct {
	BaseURL string
	APIKey  string
	Lang    string
	Timeout time.Duration
	Client  *http.Client
}

func NewCryptoCompareFetcher(apiKey string, timeout time.Duration) *CryptoCompareFetcher {
	return &CryptoCompareFetcher{
		BaseURL: cryptoCompareBaseURL,
		APIKey:  apiKey,
		Lang:    "EN",
		Timeout: timeoutOrDefault(timeout),
	}
}

func (f *CryptoCompareFetcher) Name() string {
	return "cryptocompare"
}

func (f *CryptoCompareFetcher) Priority() int {
	return 10
}

type ccNewsResp struct {
	Type     int    `json:"Type"`
	Message  string `json:"Message"`
	Response string `json:"Response"`
	Data     []struct {
		ID          string `json:"id"`
		PublishedOn int64  `json:"published_on"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		Categories  string `json:"categories"`
	} `json:"Data"`
}

func (f *CryptoCompareFetcher) Fetch(ctx context.Context, limit int) ([]NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(f.Timeout))
	defer cancel()

	params := url.Values{}
	if f.Lang != "" {
		params.Set("lang", f.Lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	// key 可选：只有真实 key 才带上
	if HasCredential(f.APIKey) {
		req.Header.Set("authorization", "Apikey "+f.APIKey)
	}

	resp, err := httpClient(f.Client).Do(req)
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(f.Name(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var data ccNewsResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, cryptoCompareMaxResponseBytes)).Decode(&data); err != nil {
		return nil, unavailable(f.Name(), fmt.Errorf("decode: %w", err))
	}
	if strings.EqualFold(data.Response, "Error") {
		return nil, unavailable(f.Name(), fmt.Errorf("api error: %s", data.Message))
	}

	results := make([]NewsItem, 0, min(len(data.Data), limitOr(limit, len(data.Data))))
	for _, d := range data.Data {
		if limit > 0 && len(results) >= limit {
			break
		}
		title := strings.TrimSpace(d.Title)
		if title == "" {
			continue
		}
		var published time.Time
		if d.PublishedOn > 0 {
			published = time.Unix(d.PublishedOn, 0)
		}
		results = append(results, NewsItem{
			Title:       title,
			URL:         d.URL,
			Source:      f.Name(),
			Category:    CategoryCrypto,
			PublishedAt: published,
		})
	}
	return results, nil
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
