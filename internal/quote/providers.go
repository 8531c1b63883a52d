package quote

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
	quoteMaxResponseBytes = 64 * 1024 // 行情接口响应很小
	defaultQuoteTimeout   = 5 * time.Second

	coinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"
	binanceURL   = "https://api.binance.com/api/v3/ticker/24hr"
)

// CoinGecko simple/price 接口，无需 key
type CoinGecko struct {
	BaseURL string
	Client  *http.Client
}

func NewCoinGecko(timeout time.Duration) *CoinGecko {
	if timeout <= 0 {
		timeout = defaultQuoteTimeout
	}
	return &CoinGecko{BaseURL: coinGeckoURL, Client: &http.Client{Timeout: timeout}}
}

func (c *CoinGecko) GetQuote(ctx context.Context, asset string) (PriceQuote, error) {
	params := url.Values{
		"ids":                 {asset},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
	}
	body, err := getJSON(ctx, c.Client, c.BaseURL+"?"+params.Encode())
	if err != nil {
		return PriceQuote{}, unavailable("coingecko", err)
	}

	// {"bitcoin":{"usd":118590,"usd_24h_change":3.28}}
	var data map[string]struct {
		USD       float64 `json:"usd"`
		USDChange float64 `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return PriceQuote{}, unavailable("coingecko", fmt.Errorf("decode: %w", err))
	}
	d, ok := data[asset]
	if !ok {
		return PriceQuote{}, unavailable("coingecko", fmt.Errorf("asset %q not in response", asset))
	}
	q := PriceQuote{
		Asset:            asset,
		Price:            d.USD,
		Change24hPercent: d.USDChange,
		Source:           "coingecko",
		FetchedAt:        time.Now(),
	}
	if !q.Valid() {
		return PriceQuote{}, unavailable("coingecko", fmt.Errorf("invalid price %v", d.USD))
	}
	return q, nil
}

// Binance 24hr ticker，资产名映射为 USDT 交易对
type Binance struct {
	BaseURL string
	Client  *http.Client
}

func NewBinance(timeout time.Duration) *Binance {
	if timeout <= 0 {
		timeout = defaultQuoteTimeout
	}
	return &Binance{BaseURL: binanceURL, Client: &http.Client{Timeout: timeout}}
}

var binanceSymbols = map[string]string{
	"bitcoin":  "BTCUSDT",
	"ethereum": "ETHUSDT",
	"solana":   "SOLUSDT",
}

func binanceSymbol(asset string) string {
	if s, ok := binanceSymbols[strings.ToLower(asset)]; ok {
		return s
	}
	return strings.ToUpper(asset) + "USDT"
}

func (b *Binance) GetQuote(ctx context.Context, asset string) (PriceQuote, error) {
	params := url.Values{"symbol": {binanceSymbol(asset)}}
	body, err := getJSON(ctx, b.Client, b.BaseURL+"?"+params.Encode())
	if err != nil {
		return PriceQuote{}, unavailable("binance", err)
	}

	var data struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return PriceQuote{}, unavailable("binance", fmt.Errorf("decode: %w", err))
	}
	price, err := strconv.ParseFloat(data.LastPrice, 64)
	if err != nil {
		return PriceQuote{}, unavailable("binance", fmt.Errorf("parse lastPrice %q: %w", data.LastPrice, err))
	}
	change, err := strconv.ParseFloat(data.PriceChangePercent, 64)
	if err != nil {
		return PriceQuote{}, unavailable("binance", fmt.Errorf("parse priceChangePercent %q: %w", data.PriceChangePercent, err))
	}
	q := PriceQuote{
		Asset:            asset,
		Price:            price,
		Change24hPercent: change,
		Source:           "binance",
		FetchedAt:        time.Now(),
	}
	if !q.Valid() {
		return PriceQuote{}, unavailable("binance", fmt.Errorf("invalid price %v", price))
	}
	return q, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if client == nil {
		client = &http.Client{Timeout: defaultQuoteTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, quoteMaxResponseBytes))
}
