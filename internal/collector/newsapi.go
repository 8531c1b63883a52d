package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	newsAPIBaseURL          = "https://newsapi.org/v2/everything"
	newsAPIMaxResponseBytes = 2 << 20
	newsAPIDefaultQuery     = "bitcoin OR cryptocurrency OR 比特币"
)

// NewsAPIFetcher 基于 NewsAPI.org 的关键词搜索，必须配置 key
type NewsAPIFetcher struct {
	BaseURL  string
	APIKey   string
	Query    string
	Language string
	Timeout  time.Duration
	Client   *http.Client
}

func NewNewsAPIFetcher(apiKey, query string, timeout time.Duration) *NewsAPIFetcher {
	if strings.TrimSpace(query) == "" {
		query = newsAPIDefaultQuery
	}
	return &NewsAPIFetcher{
		BaseURL: newsAPIBaseURL,
		APIKey:  apiKey,
		Query:   query,
		Timeout: timeoutOrDefault(timeout),
	}
}

func (f *NewsAPIFetcher) Name() string {
	return "newsapi"
}

func (f *NewsAPIFetcher) Priority() int {
	return 20
}

type newsAPIResp struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (f *NewsAPIFetcher) Fetch(ctx context.Context, limit int) ([]NewsItem, error) {
	return f.Search(ctx, f.Query, limit)
}

// Search 按关键词搜索最新文章
func (f *NewsAPIFetcher) Search(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	if !HasCredential(f.APIKey) {
		return nil, credentialMissing(f.Name())
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(f.Timeout))
	defer cancel()

	params := url.Values{
		"q":      {query},
		"sortBy": {"publishedAt"},
	}
	if limit > 0 {
		params.Set("pageSize", strconv.Itoa(limit))
	}
	if f.Language != "" {
		params.Set("language", f.Language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	req.Header.Set("X-Api-Key", f.APIKey)

	resp, err := httpClient(f.Client).Do(req)
	if err != nil {
		return nil, unavailable(f.Name(), err)
	}
	defer resp.Body.Close()

	var data newsAPIResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, newsAPIMaxResponseBytes)).Decode(&data); err != nil {
		return nil, unavailable(f.Name(), fmt.Errorf("decode (status %d): %w", resp.StatusCode, err))
	}
	if resp.StatusCode != http.StatusOK || data.Status != "ok" {
		return nil, unavailable(f.Name(), fmt.Errorf("status %d %s: %s", resp.StatusCode, data.Code, data.Message))
	}

	results := make([]NewsItem, 0, len(data.Articles))
	for _, a := range data.Articles {
		if limit > 0 && len(results) >= limit {
			break
		}
		title := strings.TrimSpace(a.Title)
		// 被下架的文章标题固定为 [Removed]
		if title == "" || title == "[Removed]" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		results = append(results, NewsItem{
			Title:       title,
			URL:         a.URL,
			Source:      f.Name(),
			PublishedAt: published,
		})
	}
	return results, nil
}
