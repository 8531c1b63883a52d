package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCredential(t *testing.T) {
	for _, k := range []string{"", "   ", "your_api_key", "YOUR_API_KEY_HERE", "demo", "xxxx", "****"} {
		assert.False(t, HasCredential(k), "%q", k)
	}
	for _, k := range []string{"c0ffee1234", "pk_live_abc"} {
		assert.True(t, HasCredential(k), "%q", k)
	}
}

func TestSourceErrorMatchesKind(t *testing.T) {
	err := unavailable("x", errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrCredentialMissing)
	assert.Contains(t, err.Error(), "dial tcp")

	err = credentialMissing("x")
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Equal(t, "x: credential missing", err.Error())

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "x", se.Source)
}

func TestCategoryHelpers(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.Icon())
		assert.NotEmpty(t, c.Label())
	}
	assert.False(t, Category("sports").Valid())
	assert.False(t, Category("").Valid())
}

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("anything", nil))
	assert.True(t, containsAny("Bitcoin hits record", []string{"bitcoin"}))
	assert.False(t, containsAny("Weather report", []string{"bitcoin", " "}))
}

func TestKeyedSourcesSkipWithoutCredential(t *testing.T) {
	ctx := context.Background()

	_, err := NewNewsAPIFetcher("", "", time.Second).Fetch(ctx, 5)
	assert.ErrorIs(t, err, ErrCredentialMissing)

	_, err = NewNewsAPIFetcher("your_api_key", "", time.Second).Fetch(ctx, 5)
	assert.ErrorIs(t, err, ErrCredentialMissing)

	_, err = NewFinnhubFetcher("", time.Second).Fetch(ctx, 5)
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

func TestPriorities(t *testing.T) {
	fetchers := []Fetcher{
		NewCryptoCompareFetcher("", 0),
		NewNewsAPIFetcher("", "", 0),
		NewFinnhubFetcher("", 0),
		NewAShareIndexFetcher(nil, 0),
		NewRSSFetcher(nil, nil, 0),
		NewWebHeadlinesFetcher("", "", nil, 0),
	}
	for i := 1; i < len(fetchers); i++ {
		assert.Less(t, fetchers[i-1].Priority(), fetchers[i].Priority(), fetchers[i].Name())
	}
}
