package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finnhubServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "crypto", r.URL.Query().Get("category"))
		assert.Equal(t, "test-key", r.Header.Get("X-Finnhub-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFinnhubFetch(t *testing.T) {
	srv := finnhubServer(t, http.StatusOK, `[
		{"category":"crypto","datetime":1720000000,"headline":"  Bitcoin miners expand capacity ","id":1,"source":"CoinDesk","url":"https://fh.example/1"},
		{"category":"crypto","datetime":0,"id":2,"source":"CoinDesk","url":"https://fh.example/2"},
		{"category":"crypto","datetime":0,"headline":"   ","id":3,"url":"https://fh.example/3"},
		{"category":"crypto","datetime":1720000300,"headline":"Ether ETF volumes climb","id":4,"url":"https://fh.example/4"},
		{"category":"crypto","datetime":1720000600,"headline":"Stablecoin supply hits record","id":5,"url":"https://fh.example/5"}
	]`)

	f := NewFinnhubFetcher("test-key", time.Second)
	f.BaseURL = srv.URL

	items, err := f.Fetch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Bitcoin miners expand capacity", items[0].Title)
	assert.Equal(t, "https://fh.example/1", items[0].URL)
	assert.Equal(t, "finnhub", items[0].Source)
	assert.Equal(t, time.Unix(1720000000, 0), items[0].PublishedAt)
	assert.Equal(t, "Ether ETF volumes climb", items[1].Title)

	limited, err := f.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Ether ETF volumes climb", limited[1].Title)
}

func TestFinnhubFetchZeroDatetimeLeavesTimeEmpty(t *testing.T) {
	srv := finnhubServer(t, http.StatusOK, `[{"datetime":0,"headline":"Crypto market quiet","url":"https://fh.example/q"}]`)

	f := NewFinnhubFetcher("test-key", time.Second)
	f.BaseURL = srv.URL

	items, err := f.Fetch(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].PublishedAt.IsZero())
}

func TestFinnhubFetchErrorStatus(t *testing.T) {
	srv := finnhubServer(t, http.StatusTooManyRequests, `{"error":"API limit reached"}`)

	f := NewFinnhubFetcher("test-key", time.Second)
	f.BaseURL = srv.URL

	items, err := f.Fetch(context.Background(), 5)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Empty(t, items)
}
