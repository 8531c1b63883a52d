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

func TestCryptoCompareFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EN", r.URL.Query().Get("lang"))
		assert.Equal(t, "Apikey c0ffee1234", r.Header.Get("authorization"))
		_, _ = w.Write([]byte(`{"Type":100,"Response":"Success","Data":[
			{"id":"1","published_on":1720000000,"title":"Bitcoin ETF inflows rise","url":"https://cc.example/1"},
			{"id":"2","published_on":0,"title":"   ","url":"https://cc.example/2"},
			{"id":"3","published_on":1720000100,"title":"Ether gas fees drop","url":"https://cc.example/3"},
			{"id":"4","published_on":1720000200,"title":"Solana outage resolved","url":"https://cc.example/4"}
		]}`))
	}))
	defer srv.Close()

	f := NewCryptoCompareFetcher("c0ffee1234", time.Second)
	f.BaseURL = srv.URL

	items, err := f.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bitcoin ETF inflows rise", items[0].Title)
	assert.Equal(t, "Ether gas fees drop", items[1].Title)
	assert.Equal(t, CategoryCrypto, items[0].Category)
	assert.Equal(t, "cryptocompare", items[0].Source)
	assert.Equal(t, int64(1720000000), items[0].PublishedAt.Unix())
}

func TestCryptoCompareOmitsPlaceholderKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("authorization"))
		_, _ = w.Write([]byte(`{"Response":"Success","Data":[]}`))
	}))
	defer srv.Close()

	f := NewCryptoCompareFetcher("your_api_key", time.Second)
	f.BaseURL = srv.URL

	items, err := f.Fetch(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCryptoCompareErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"api error", http.StatusOK, `{"Response":"Error","Message":"rate limit"}`},
		{"malformed", http.StatusOK, `<html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			f := NewCryptoCompareFetcher("", time.Second)
			f.BaseURL = srv.URL

			_, err := f.Fetch(context.Background(), 5)
			assert.ErrorIs(t, err, ErrSourceUnavailable)
		})
	}
}

func TestCryptoCompareTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	f := NewCryptoCompareFetcher("", 50*time.Millisecond)
	f.BaseURL = srv.URL

	_, err := f.Fetch(context.Background(), 5)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
