package fallback

import (
	"math"
	"strings"
	"testing"

	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"github.com/LJTian/LiveNewsBoard/internal/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuote(price, change float64) quote.PriceQuote {
	return quote.PriceQuote{Asset: "bitcoin", Price: price, Change24hPercent: change}
}

func TestGenerateShape(t *testing.T) {
	items, err := Generate(testQuote(118590, 3.28))
	require.NoError(t, err)
	require.Len(t, items, Size)

	important := 0
	cats := map[collector.Category]int{}
	for i, it := range items {
		assert.NotEmpty(t, it.Title)
		assert.Equal(t, Source, it.Source)
		assert.True(t, it.Category.Valid())
		assert.NotEmpty(t, it.Icon)
		if it.Important {
			important++
		}
		if i < 4 {
			cats[it.Category]++
		}
	}
	assert.Equal(t, 1, important)
	for _, c := range collector.Categories {
		assert.Contains(t, cats, c, "first four items should cover %s", c)
	}

	assert.Contains(t, items[0].Title, "118590")
	assert.Contains(t, items[0].Title, "3.28")
	assert.Contains(t, items[0].Title, "上涨")
}

func TestGenerateIsReproducible(t *testing.T) {
	a, err := Generate(testQuote(64000.5, -2.1))
	require.NoError(t, err)
	b, err := Generate(testQuote(64000.5, -2.1))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Contains(t, a[0].Title, "64000.5")
	assert.Contains(t, a[0].Title, "下跌2.10")
	assert.Contains(t, a[5].Title, "-2.10%")
}

func TestGenerateRejectsInvalidQuote(t *testing.T) {
	for _, q := range []quote.PriceQuote{testQuote(0, 1), testQuote(-5, 1), testQuote(math.NaN(), 1), testQuote(10, math.Inf(-1))} {
		_, err := Generate(q)
		assert.ErrorIs(t, err, ErrInvalidQuote)
		_, err = Headline(q)
		assert.ErrorIs(t, err, ErrInvalidQuote)
	}
}

func TestHeadline(t *testing.T) {
	h, err := Headline(testQuote(118590, 3.28))
	require.NoError(t, err)
	assert.True(t, h.Important)
	assert.Equal(t, HeadlineSource, h.Source)
	assert.Equal(t, collector.CategoryCrypto, h.Category)
	assert.True(t, strings.Contains(h.Title, "118590") && strings.Contains(h.Title, "+3.28"))

	items, err := Generate(testQuote(118590, 3.28))
	require.NoError(t, err)
	for _, it := range items {
		assert.NotEqual(t, h.Title, it.Title)
	}
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "118590", FormatPrice(118590))
	assert.Equal(t, "118590.25", FormatPrice(118590.25))
	assert.Equal(t, "+3.28", FormatChange(3.28))
	assert.Equal(t, "-0.50", FormatChange(-0.5))
	assert.Equal(t, "+0.00", FormatChange(0))
}
