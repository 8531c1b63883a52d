package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaultTable(t *testing.T) {
	c, err := New(DefaultTable())
	require.NoError(t, err)

	cases := []struct {
		title string
		want  collector.Category
	}{
		{"🚀 比特币突破$118590，24小时上涨3.28%", collector.CategoryCrypto},
		{"Ethereum ETF inflows accelerate", collector.CategoryCrypto},
		{"BTC miners sell reserves", collector.CategoryCrypto},
		{"🇨🇳 亚洲市场数字货币相关股票普涨", collector.CategoryCrypto}, // 加密关键词优先
		{"港股恒生指数午后拉升", collector.CategoryRegional},
		{"China's central bank trims reserve ratio", collector.CategoryRegional},
		{"🏦 美联储政策预期升温", collector.CategoryEquities},
		{"Nasdaq closes at record on tech earnings", collector.CategoryEquities},
		{"Netflix subscriber growth beats forecasts", collector.CategoryOther},
		{"Weather outlook for the weekend", collector.CategoryOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.title), tc.title)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c, err := New(DefaultTable())
	require.NoError(t, err)

	titles := []string{"比特币", "上证指数", "S&P 500 futures", "random headline", ""}
	for _, title := range titles {
		first := c.Classify(title)
		for i := 0; i < 20; i++ {
			require.Equal(t, first, c.Classify(title))
		}
		assert.True(t, first.Valid())
	}
}

func TestClassifierCopiesTable(t *testing.T) {
	table := KeywordTable{
		Rules:   []Rule{{Category: collector.CategoryRegional, Keywords: []string{"Tokyo"}}},
		Default: collector.CategoryEquities,
	}
	c, err := New(table)
	require.NoError(t, err)

	table.Rules[0].Keywords[0] = "London"
	assert.Equal(t, collector.CategoryRegional, c.Classify("tokyo stocks rally"))
	assert.Equal(t, collector.CategoryEquities, c.Classify("London stocks rally"))
}

func TestValidateRejectsBadTables(t *testing.T) {
	_, err := New(KeywordTable{})
	assert.Error(t, err)

	_, err = New(KeywordTable{Rules: []Rule{{Category: "forex", Keywords: []string{"usd"}}}})
	assert.Error(t, err)

	_, err = New(KeywordTable{Rules: []Rule{{Category: collector.CategoryCrypto, Keywords: []string{" "}}}})
	assert.Error(t, err)

	_, err = New(KeywordTable{
		Rules:   []Rule{{Category: collector.CategoryCrypto, Keywords: []string{"btc"}}},
		Default: "misc",
	})
	assert.Error(t, err)
}

func TestLoadTableFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	content := `
rules:
  - category: crypto
    keywords: ["doge", "狗狗币"]
  - category: regional
    keywords: ["nikkei"]
default: equities
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	c, err := New(table)
	require.NoError(t, err)

	assert.Equal(t, collector.CategoryCrypto, c.Classify("DOGE rallies"))
	assert.Equal(t, collector.CategoryCrypto, c.Classify("狗狗币大涨"))
	assert.Equal(t, collector.CategoryRegional, c.Classify("Nikkei slips"))
	assert.Equal(t, collector.CategoryEquities, c.Classify("bitcoin"))

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseTable([]byte("rules: [oops"))
	assert.Error(t, err)
}
