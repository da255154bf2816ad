package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"safewatch/internal/types"
)

const (
	DefaultBaseURL = "https://serpapi.com/search.json"
	// MaxResults caps the merged organic+news batch.
	MaxResults = 10
)

var (
	ErrMissingAPIKey = errors.New("search: api key is not configured")
	ErrNoResults     = errors.New("search: no results")
)

// Searcher is the search step used by the pipelines.
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.SearchResult, error)
}

// Client queries a SerpAPI-compatible web search endpoint.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	engine  string
}

type Config struct {
	APIKey     string
	BaseURL    string
	Engine     string
	HTTPClient *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	engine := strings.TrimSpace(cfg.Engine)
	if engine == "" {
		engine = "google"
	}
	return &Client{
		http:    hc,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: base,
		engine:  engine,
	}
}

type serpEntry struct {
	Title   string          `json:"title"`
	Link    string          `json:"link"`
	Source  json.RawMessage `json:"source,omitempty"`
	Snippet string          `json:"snippet,omitempty"`
}

type serpResponse struct {
	OrganicResults []serpEntry `json:"organic_results"`
	NewsResults    []serpEntry `json:"news_results"`
	Error          string      `json:"error,omitempty"`
}

// Search runs the query and returns at most MaxResults entries. A missing key,
// a non-2xx response and an empty result set are all errors.
func (c *Client) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: executing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decoding response: %w", err)
	}
	results := mergeResults(out.OrganicResults, out.NewsResults)
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

// mergeResults concatenates organic then news entries, dropping entries without a
// title or link and repeated links, and caps the batch at MaxResults.
func mergeResults(groups ...[]serpEntry) []types.SearchResult {
	seen := make(map[string]struct{})
	out := make([]types.SearchResult, 0, MaxResults)
	for _, group := range groups {
		for _, e := range group {
			title := strings.TrimSpace(e.Title)
			link := strings.TrimSpace(e.Link)
			if title == "" || link == "" {
				continue
			}
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			out = append(out, types.SearchResult{
				Title:   title,
				URL:     link,
				Source:  sourceName(e.Source),
				Snippet: strings.TrimSpace(e.Snippet),
			})
			if len(out) == MaxResults {
				return out
			}
		}
	}
	return out
}

// sourceName accepts both shapes providers use: a plain string or an object
// with a "name" field (Google News results).
func sourceName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Name)
	}
	return ""
}
