package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safewatch/internal/types"
)

func TestSuburb(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Coetzenberg Way, Edgemead, Milnerton, Cape Town, 7441, South Africa", "Edgemead"},
		{"Main Road,  Sea Point , Cape Town", "Sea Point"},
		{"Durbanville", "Durbanville"},
		{"Street, , City", "Street"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Suburb(tt.input))
		})
	}
}

func TestBuildQueryContainsQuotedSuburb(t *testing.T) {
	q := BuildQuery("Coetzenberg Way, Edgemead, Milnerton, Cape Town")
	assert.Contains(t, q, "Edgemead")
	assert.Equal(t, `"Edgemead" crime incidents safety news recent today`, q)
}

func serpServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.RawQuery
		}
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSearchMergesOrganicAndNews(t *testing.T) {
	body := `{
	  "organic_results": [
	    {"title": "Robbery in Edgemead", "link": "https://news.example/1", "source": "Example News", "snippet": "A robbery..."},
	    {"title": "", "link": "https://news.example/no-title"},
	    {"title": "No link"}
	  ],
	  "news_results": [
	    {"title": "Duplicate", "link": "https://news.example/1"},
	    {"title": "Hijacking on N1", "link": "https://news.example/2", "source": {"name": "Daily"}}
	  ]
	}`
	var rawQuery string
	srv := serpServer(t, http.StatusOK, body, &rawQuery)
	cli := NewClient(Config{APIKey: "secret", BaseURL: srv.URL})

	got, err := cli.Search(context.Background(), BuildQuery("X, Edgemead, Y"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.SearchResult{
		Title: "Robbery in Edgemead", URL: "https://news.example/1", Source: "Example News", Snippet: "A robbery...",
	}, got[0])
	assert.Equal(t, "Daily", got[1].Source)
	assert.Contains(t, rawQuery, "Edgemead")
}

func TestClientSearchCapsAtTen(t *testing.T) {
	entries := ""
	for i := 0; i < 15; i++ {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"title":"t%d","link":"https://x/%d"}`, i, i)
	}
	srv := serpServer(t, http.StatusOK, `{"organic_results":[`+entries+`]}`, nil)
	got, err := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, got, MaxResults)
	assert.Equal(t, "https://x/9", got[9].URL)
}

func TestClientSearchErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewClient(Config{}).Search(context.Background(), "q")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})
	t.Run("non-2xx", func(t *testing.T) {
		srv := serpServer(t, http.StatusUnauthorized, `{"error":"Invalid API key"}`, nil)
		_, err := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}).Search(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "Invalid API key")
	})
	t.Run("zero results", func(t *testing.T) {
		srv := serpServer(t, http.StatusOK, `{"organic_results":[]}`, nil)
		_, err := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}).Search(context.Background(), "q")
		assert.ErrorIs(t, err, ErrNoResults)
	})
	t.Run("bad json", func(t *testing.T) {
		srv := serpServer(t, http.StatusOK, `{"organic_results":`, nil)
		_, err := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}).Search(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding")
	})
}

type countingSearcher struct {
	calls   atomic.Int32
	results []types.SearchResult
	err     error
}

func (c *countingSearcher) Search(context.Context, string) ([]types.SearchResult, error) {
	c.calls.Add(1)
	return c.results, c.err
}

func TestCachedServesRepeatQueries(t *testing.T) {
	inner := &countingSearcher{results: []types.SearchResult{{Title: "a", URL: "https://a"}}}
	cached := NewCached(inner, 8, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := cached.Search(context.Background(), "q")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.EqualValues(t, 1, inner.calls.Load())

	_, _ = cached.Search(context.Background(), "other")
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingSearcher{err: errors.New("down")}
	cached := NewCached(inner, 8, time.Minute)
	_, err := cached.Search(context.Background(), "q")
	require.Error(t, err)
	_, err = cached.Search(context.Background(), "q")
	require.Error(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
}
