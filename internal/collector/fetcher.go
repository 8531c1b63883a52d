package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category 新闻分类，取值为封闭集合
type Category string

const (
	CategoryCrypto   Category = "crypto"
	CategoryEquities Category = "equities"
	CategoryRegional Category = "regional"
	CategoryOther    Category = "other"
)

// Categories 按面板统计栏的展示顺序排列
var Categories = []Category{CategoryCrypto, CategoryEquities, CategoryRegional, CategoryOther}

func (c Category) Valid() bool {
	switch c {
	case CategoryCrypto, CategoryEquities, CategoryRegional, CategoryOther:
		return true
	}
	return false
}

// Icon 返回分类默认图标
func (c Category) Icon() string {
	switch c {
	case CategoryCrypto:
		return "₿"
	case CategoryEquities:
		return "💵"
	case CategoryRegional:
		return "🔴"
	default:
		return "🌍"
	}
}

// Label 面板上显示的中文名称
func (c Category) Label() string {
	switch c {
	case CategoryCrypto:
		return "加密货币"
	case CategoryEquities:
		return "美股动态"
	case CategoryRegional:
		return "国内市场"
	default:
		return "其他"
	}
}

// NewsItem 统一的新闻卡片结构
type NewsItem struct {
	Title    string   `json:"title"`
	URL      string   `json:"url,omitempty"`
	Source   string   `json:"source"`
	Category Category `json:"category"`
	Icon     string   `json:"icon"`
	// DisplayTime 仅用于展示的相对时间文案，不是真实时间戳
	DisplayTime string    `json:"display_time"`
	Important   bool      `json:"important"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Fetcher 抽象每一个数据源。Fetch 不允许 panic，失败时返回 error（通常为 *SourceError）
type Fetcher interface {
	Name() string
	// Priority 越小越先执行
	Priority() int
	Fetch(ctx context.Context, limit int) ([]NewsItem, error)
}

var (
	// ErrSourceUnavailable 网络错误、超时、非 2xx、响应无法解析
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrCredentialMissing 数据源需要 key 但未配置或仍为占位值，未发起网络请求
	ErrCredentialMissing = errors.New("credential missing")
)

// SourceError 带上数据源名称的错误
type SourceError struct {
	Source string
	Kind   error
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unavailable(source string, err error) error {
	return &SourceError{Source: source, Kind: ErrSourceUnavailable, Err: err}
}

func credentialMissing(source string) error {
	return &SourceError{Source: source, Kind: ErrCredentialMissing}
}

// 常见的示例/占位 key，视同未配置
var placeholderKeys = map[string]struct{}{
	"your_api_key":      {},
	"your-api-key":      {},
	"your_api_key_here": {},
	"your-api-key-here": {},
	"<api_key>":         {},
	"api_key":           {},
	"apikey":            {},
	"demo":              {},
	"changeme":          {},
	"xxx":               {},
	"none":              {},
}

// HasCredential 判断 key 是否可用：非空且不是已知占位值
func HasCredential(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	if _, ok := placeholderKeys[k]; ok {
		return false
	}
	if strings.Trim(k, "x*") == "" {
		return false
	}
	return true
}

const defaultFetchTimeout = 8 * time.Second

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultFetchTimeout
	}
	return d
}

// containsAny 关键字过滤，大小写不敏感；keywords 为空时全部放行
func containsAny(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	t := strings.ToLower(title)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(t, k) {
			return true
		}
	}
	return false
}
