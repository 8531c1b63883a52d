package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	eastMoneyStockGetURL     = "https://push2.eastmoney.com/api/qt/stock/get"
	eastMoneyMaxResponseByte = 256 * 1024
)

// 三大指数：上证 1.000001，深证成指 0.399001，创业板指 0.399006
var indexSecIDs = []struct {
	SecID string
	Name  string
}{
	{"1.000001", "上证指数"},
	{"0.399001", "深证成指"},
	{"0.399006", "创业板指"},
}

// AShareIndexFetcher 从东方财富拉取三大指数与自选股，转成“国内市场”分类的快讯。
// 休市时直接返回空结果，不访问行情源。
type AShareIndexFetcher struct {
	BaseURL    string
	StockCodes []string
	Timeout    time.Duration
	Client     *http.Client
	// Now 便于测试注入时间
	Now func() time.Time
}

func NewAShareIndexFetcher(stockCodes []string, timeout time.Duration) *AShareIndexFetcher {
	return &AShareIndexFetcher{
		BaseURL:    eastMoneyStockGetURL,
		StockCodes: stockCodes,
		Timeout:    timeoutOrDefault(timeout),
		Now:        time.Now,
	}
}

func (a *AShareIndexFetcher) Name() string {
	return "ashare_index"
}

func (a *AShareIndexFetcher) Priority() int {
	return 40
}

func beijingLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// 回退到固定 UTC+8，确保即使系统时区配置异常也能大致正确
		loc = time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// isAshareMarketOpen 判断是否处于 A 股交易时间（北京时间）
func isAshareMarketOpen(t time.Time) bool {
	if !isAshareTradingWeekday(t) {
		return false
	}
	bt := t.In(beijingLocation())
	min := bt.Hour()*60 + bt.Minute()
	// 交易时间：9:30–11:30, 13:00–15:00
	if min >= 9*60+30 && min <= 11*60+30 {
		return true
	}
	if min >= 13*60 && min <= 15*60 {
		return true
	}
	return false
}

// isAshareTradingWeekday 仅按工作日粗略判断，不处理法定节假日
func isAshareTradingWeekday(t time.Time) bool {
	switch t.In(beijingLocation()).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// codeToSecID code 为 6 位股票代码，如 600519。返回东方财富 secid：沪 1.xxxxxx，深 0.xxxxxx
func codeToSecID(code string) string {
	if len(code) < 1 {
		return ""
	}
	switch code[0] {
	case '6', '9':
		return "1." + code
	default:
		return "0." + code
	}
}

type eastMoneyQuote struct {
	Name   string
	Price  float64
	Change float64
}

func (a *AShareIndexFetcher) Fetch(ctx context.Context, limit int) ([]NewsItem, error) {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	if !isAshareMarketOpen(now) {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(a.Timeout))
	defer cancel()

	type target struct{ secID, name string }
	targets := make([]target, 0, len(indexSecIDs)+len(a.StockCodes))
	for _, idx := range indexSecIDs {
		targets = append(targets, target{idx.SecID, idx.Name})
	}
	for _, code := range a.StockCodes {
		if secID := codeToSecID(code); secID != "" {
			targets = append(targets, target{secID, code})
		}
	}

	// 并行请求，按目标顺序回填，保证指数在前
	quotes := make([]*eastMoneyQuote, len(targets))
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := a.fetchOne(ctx, t.secID)
			if err != nil {
				errs[i] = err
				return
			}
			if q.Name == "" {
				q.Name = t.name
			}
			quotes[i] = q
		}()
	}
	wg.Wait()

	results := make([]NewsItem, 0, len(targets))
	for _, q := range quotes {
		if q == nil {
			continue
		}
		if limit > 0 && len(results) >= limit {
			break
		}
		verb := "上涨"
		if q.Change < 0 {
			verb = "下跌"
		}
		results = append(results, NewsItem{
			Title: fmt.Sprintf("📊 %s报 %s 点，%s%s%%", q.Name,
				strconv.FormatFloat(q.Price, 'f', 2, 64), verb,
				strconv.FormatFloat(abs(q.Change), 'f', 2, 64)),
			URL:         "https://quote.eastmoney.com/",
			Source:      a.Name(),
			Category:    CategoryRegional,
			PublishedAt: now,
		})
	}
	if len(results) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, unavailable(a.Name(), err)
			}
		}
	}
	return results, nil
}

func (a *AShareIndexFetcher) fetchOne(ctx context.Context, secID string) (*eastMoneyQuote, error) {
	// f43: 最新价（×100），f170: 涨跌幅（百分比 * 100），f58: 名称
	params := url.Values{"secid": {secID}, "fields": {"f43,f58,f170"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := httpClient(a.Client).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("secid %s: status %d", secID, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, eastMoneyMaxResponseByte))
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data *struct {
			F43  float64 `json:"f43"`
			F58  string  `json:"f58"`
			F170 float64 `json:"f170"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("secid %s: decode: %w", secID, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("secid %s: empty data", secID)
	}
	return &eastMoneyQuote{
		Name:   payload.Data.F58,
		Price:  payload.Data.F43 / 100,
		Change: payload.Data.F170 / 100,
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
