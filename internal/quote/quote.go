package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrQuoteUnavailable 行情源不可用（网络、超时、非 2xx、响应异常）
var ErrQuoteUnavailable = errors.New("quote unavailable")

// PriceQuote 单个资产的美元报价
type PriceQuote struct {
	Asset            string    `json:"asset"`
	Price            float64   `json:"price"`
	Change24hPercent float64   `json:"change_24h_percent"`
	Source           string    `json:"source"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// Valid 价格必须是正的有限数，涨跌幅必须是有限数
func (q PriceQuote) Valid() bool {
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) || q.Price <= 0 {
		return false
	}
	return !math.IsNaN(q.Change24hPercent) && !math.IsInf(q.Change24hPercent, 0)
}

// Provider 行情源
type Provider interface {
	GetQuote(ctx context.Context, asset string) (PriceQuote, error)
}

const (
	DefaultAsset  = "bitcoin"
	DefaultPrice  = 118590
	DefaultChange = 3.28
)

// Default 行情源全部失败时使用的静态报价
func Default(asset string, price, change float64) PriceQuote {
	if asset == "" {
		asset = DefaultAsset
	}
	if price <= 0 {
		price = DefaultPrice
	}
	return PriceQuote{
		Asset:            asset,
		Price:            price,
		Change24hPercent: change,
		Source:           "default",
	}
}

// Chain 依次尝试多个行情源，返回第一个成功的结果
type Chain []Provider

func (c Chain) GetQuote(ctx context.Context, asset string) (PriceQuote, error) {
	errs := make([]error, 0, len(c))
	for _, p := range c {
		q, err := p.GetQuote(ctx, asset)
		if err == nil {
			return q, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return PriceQuote{}, fmt.Errorf("%w: no providers", ErrQuoteUnavailable)
	}
	return PriceQuote{}, errors.Join(errs...)
}

func unavailable(source string, err error) error {
	return fmt.Errorf("%s: %w: %v", source, ErrQuoteUnavailable, err)
}
