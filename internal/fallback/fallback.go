// Package fallback 在实时数据源不足时生成兜底快讯，保证面板永远不为空。
// 输出只依赖报价本身，同一报价总是得到相同的结果。
package fallback

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"github.com/LJTian/LiveNewsBoard/internal/quote"
)

const (
	// Source 兜底条目的来源标签
	Source = "fallback"
	// HeadlineSource 价格头条的来源标签
	HeadlineSource = "price"
	// Size Generate 固定返回的条数
	Size = 6
)

// ErrInvalidQuote 报价不是正的有限数
var ErrInvalidQuote = errors.New("fallback: invalid quote")

// FormatPrice 不带千分位，整数价格不带小数，例如 118590 / 118590.5
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatChange 带符号、两位小数，例如 +3.28 / -1.05
func FormatChange(change float64) string {
	return fmt.Sprintf("%+.2f", change)
}

func trendWords(change float64) (move, mood string) {
	if change < 0 {
		return "下跌", "承压"
	}
	return "上涨", "活跃"
}

// Generate 返回 Size 条兜底快讯：前四条已覆盖全部四个分类，且只有第一条标记为重要
func Generate(q quote.PriceQuote) ([]collector.NewsItem, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: price=%v change=%v", ErrInvalidQuote, q.Price, q.Change24hPercent)
	}
	price := FormatPrice(q.Price)
	absChange := strconv.FormatFloat(abs(q.Change24hPercent), 'f', 2, 64)
	move, mood := trendWords(q.Change24hPercent)

	items := []collector.NewsItem{
		{
			Title:     fmt.Sprintf("🚀 比特币报$%s，24小时%s%s%%", price, move, absChange),
			Category:  collector.CategoryCrypto,
			Icon:      "₿",
			Important: true,
		},
		{
			Title:    "🏦 美联储政策预期牵动数字资产价格",
			Category: collector.CategoryEquities,
			Icon:     "💵",
		},
		{
			Title:    fmt.Sprintf("🇨🇳 亚洲市场数字货币相关个股随比特币%s", move),
			Category: collector.CategoryRegional,
			Icon:     "🔴",
		},
		{
			Title:    "🌍 全球机构投资者持续关注加密资产配置",
			Category: collector.CategoryOther,
			Icon:     "🏛️",
		},
		{
			Title:    fmt.Sprintf("💎 以太坊跟随比特币%s，DeFi板块%s", move, mood),
			Category: collector.CategoryCrypto,
			Icon:     "🔷",
		},
		{
			Title:    fmt.Sprintf("📈 加密货币总市值24小时变化%s%%", FormatChange(q.Change24hPercent)),
			Category: collector.CategoryCrypto,
			Icon:     "💹",
		},
	}
	for i := range items {
		items[i].Source = Source
		items[i].DisplayTime = "实时"
	}
	return items, nil
}

// Headline 价格头条，固定排在结果第一位
func Headline(q quote.PriceQuote) (collector.NewsItem, error) {
	if !q.Valid() {
		return collector.NewsItem{}, fmt.Errorf("%w: price=%v change=%v", ErrInvalidQuote, q.Price, q.Change24hPercent)
	}
	return collector.NewsItem{
		Title:       fmt.Sprintf("🔥 比特币实时价格 $%s | 24小时变化 %s%%", FormatPrice(q.Price), FormatChange(q.Change24hPercent)),
		Source:      HeadlineSource,
		Category:    collector.CategoryCrypto,
		Icon:        "₿",
		DisplayTime: "实时",
		Important:   true,
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
