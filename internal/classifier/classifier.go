package classifier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"gopkg.in/yaml.v3"
)

// Rule 一组关键词对应一个分类
type Rule struct {
	Category collector.Category `yaml:"category"`
	Keywords []string           `yaml:"keywords"`
}

// KeywordTable 有序规则表：按顺序匹配，先命中者生效；均未命中时使用 Default
type KeywordTable struct {
	Rules   []Rule             `yaml:"rules"`
	Default collector.Category `yaml:"default"`
}

// DefaultTable 内置的中英文关键词表：加密货币 → 国内/亚洲市场 → 美股，兜底为其他
func DefaultTable() KeywordTable {
	return KeywordTable{
		Rules: []Rule{
			{
				Category: collector.CategoryCrypto,
				Keywords: []string{
					"比特币", "以太坊", "加密货币", "数字货币", "数字资产", "区块链", "稳定币", "币圈", "币安",
					"bitcoin", "btc", "ethereum", "crypto", "blockchain", "defi", "stablecoin", "solana", "nft",
				},
			},
			{
				Category: collector.CategoryRegional,
				Keywords: []string{
					"中国", "亚洲", "a股", "港股", "沪指", "上证", "深证", "创业板", "恒生", "人民币", "央行", "国内",
					"china", "chinese", "asia", "hong kong", "hang seng", "shanghai", "shenzhen", "yuan",
				},
			},
			{
				Category: collector.CategoryEquities,
				Keywords: []string{
					"美股", "美联储", "纳斯达克", "标普", "道琼斯", "股市", "股票", "财报", "华尔街",
					"federal reserve", "fomc", "nasdaq", "s&p", "dow jones", "wall street", "stock", "shares", "earnings",
				},
			},
		},
		Default: collector.CategoryOther,
	}
}

// Validate 分类必须属于封闭集合，每条规则至少一个非空关键词
func (t KeywordTable) Validate() error {
	if len(t.Rules) == 0 {
		return errors.New("classifier: keyword table has no rules")
	}
	if t.Default != "" && !t.Default.Valid() {
		return fmt.Errorf("classifier: invalid default category %q", t.Default)
	}
	for i, r := range t.Rules {
		if !r.Category.Valid() {
			return fmt.Errorf("classifier: rule %d: invalid category %q", i, r.Category)
		}
		ok := false
		for _, k := range r.Keywords {
			if strings.TrimSpace(k) != "" {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("classifier: rule %d (%s): no keywords", i, r.Category)
		}
	}
	return nil
}

// ParseTable 解析 YAML 关键词表
func ParseTable(data []byte) (KeywordTable, error) {
	var t KeywordTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return KeywordTable{}, fmt.Errorf("classifier: parse keyword table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return KeywordTable{}, err
	}
	return t, nil
}

// LoadTable 从文件加载关键词表
func LoadTable(path string) (KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordTable{}, fmt.Errorf("classifier: read keyword table: %w", err)
	}
	return ParseTable(data)
}

type rule struct {
	category collector.Category
	keywords []string
}

// Classifier 纯函数式的标题分类器，构造后只读，可并发使用
type Classifier struct {
	rules []rule
	def   collector.Category
}

func New(t KeywordTable) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		rules: make([]rule, 0, len(t.Rules)),
		def:   t.Default,
	}
	if c.def == "" {
		c.def = collector.CategoryOther
	}
	for _, r := range t.Rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		c.rules = append(c.rules, rule{category: r.Category, keywords: kws})
	}
	return c, nil
}

// Classify 大小写不敏感的子串匹配
func (c *Classifier) Classify(title string) collector.Category {
	t := strings.ToLower(title)
	for _, r := range c.rules {
		for _, k := range r.keywords {
			if strings.Contains(t, k) {
				return r.category
			}
		}
	}
	return c.def
}
