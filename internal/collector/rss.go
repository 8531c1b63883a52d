package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSFetcher 依次读取若干 RSS/Atom 源，仅保留标题命中关键词的条目
type RSSFetcher struct {
	FeedURLs []string
	Keywords []string
	Timeout  time.Duration
	Client   *http.Client
}

func NewRSSFetcher(feedURLs, keywords []string, timeout time.Duration) *RSSFetcher {
	return &RSSFetcher{
		FeedURLs: feedURLs,
		Keywords: keywords,
		Timeout:  timeoutOrDefault(timeout),
	}
}

func (r *RSSFetcher) Name() string {
	return "rss"
}

func (r *RSSFetcher) Priority() int {
	return 50
}

func (r *RSSFetcher) Fetch(ctx context.Context, limit int) ([]NewsItem, error) {
	if len(r.FeedURLs) == 0 {
		return nil, unavailable(r.Name(), errors.New("no feeds configured"))
	}

	parser := gofeed.NewParser()
	parser.Client = httpClient(r.Client)
	parser.UserAgent = "LiveNewsBoardBot/1.0"

	var (
		results = make([]NewsItem, 0, 16)
		errs    []error
	)
	for _, feedURL := range r.FeedURLs {
		if limit > 0 && len(results) >= limit {
			break
		}
		items, err := r.fetchFeed(ctx, parser, feedURL, limit-len(results))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", feedURL, err))
			continue
		}
		results = append(results, items...)
	}

	// 所有源都失败才算失败；部分成功时照常返回
	if len(errs) == len(r.FeedURLs) {
		return nil, unavailable(r.Name(), errors.Join(errs...))
	}
	return results, nil
}

func (r *RSSFetcher) fetchFeed(ctx context.Context, parser *gofeed.Parser, feedURL string, remaining int) ([]NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(r.Timeout))
	defer cancel()

	feed, err := parser.ParseURLWithContext(strings.TrimSpace(feedURL), ctx)
	if err != nil {
		return nil, err
	}

	out := make([]NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if remaining > 0 && len(out) >= remaining {
			break
		}
		title := collapseSpace(it.Title)
		if title == "" || !containsAny(title, r.Keywords) {
			continue
		}
		var published time.Time
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			published = *it.UpdatedParsed
		}
		out = append(out, NewsItem{
			Title:       title,
			URL:         it.Link,
			Source:      r.Name(),
			PublishedAt: published,
		})
	}
	return out, nil
}
