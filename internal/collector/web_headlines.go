package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const webHeadlineMaxTitleRunes = 200

// WebHeadlinesFetcher 抓取任意新闻列表页，通过 CSS 选择器定位标题，再按关键词过滤
type WebHeadlinesFetcher struct {
	PageURL  string
	Selector string
	Keywords []string
	Timeout  time.Duration
}

func NewWebHeadlinesFetcher(pageURL, selector string, keywords []string, timeout time.Duration) *WebHeadlinesFetcher {
	if strings.TrimSpace(selector) == "" {
		selector = "h2 a, h3 a"
	}
	return &WebHeadlinesFetcher{
		PageURL:  pageURL,
		Selector: selector,
		Keywords: keywords,
		Timeout:  timeoutOrDefault(timeout),
	}
}

func (w *WebHeadlinesFetcher) Name() string {
	return "web_headlines"
}

func (w *WebHeadlinesFetcher) Priority() int {
	return 60
}

func (w *WebHeadlinesFetcher) Fetch(ctx context.Context, limit int) ([]NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(w.Name(), err)
	}
	u, err := url.Parse(w.PageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, unavailable(w.Name(), fmt.Errorf("invalid page url %q", w.PageURL))
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent("LiveNewsBoardBot/1.0"),
	)
	c.SetRequestTimeout(timeoutOrDefault(w.Timeout))

	results := make([]NewsItem, 0, 16)
	seen := make(map[string]struct{})
	var statusErr error

	c.OnHTML(w.Selector, func(e *colly.HTMLElement) {
		if limit > 0 && len(results) >= limit {
			return
		}
		title := truncateRunes(collapseSpace(e.DOM.Text()), webHeadlineMaxTitleRunes)
		if title == "" || !containsAny(title, w.Keywords) {
			return
		}
		if _, ok := seen[title]; ok {
			return
		}
		seen[title] = struct{}{}

		link := ""
		if href, ok := linkOf(e.DOM); ok {
			link = e.Request.AbsoluteURL(href)
		}
		results = append(results, NewsItem{
			Title:  title,
			URL:    link,
			Source: w.Name(),
		})
	})
	c.OnError(func(r *colly.Response, err error) {
		statusErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(u.String()); err != nil {
		if statusErr != nil {
			return nil, unavailable(w.Name(), statusErr)
		}
		return nil, unavailable(w.Name(), err)
	}
	if statusErr != nil {
		return nil, unavailable(w.Name(), statusErr)
	}
	return results, nil
}

// linkOf 选中的元素本身是 <a> 时取其 href，否则取内部第一个链接
func linkOf(sel *goquery.Selection) (string, bool) {
	if goquery.NodeName(sel) == "a" {
		href, ok := sel.Attr("href")
		return strings.TrimSpace(href), ok && strings.TrimSpace(href) != ""
	}
	href, ok := sel.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href), ok && strings.TrimSpace(href) != ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if limit <= 0 || len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
