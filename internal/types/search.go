package types

// SearchResult is a single organic or news hit returned by the search step.
// Within one batch a result is identified by URL.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// URLSet returns the set of non-empty URLs present in results.
func URLSet(results []SearchResult) map[string]SearchResult {
	out := make(map[string]SearchResult, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, ok := out[r.URL]; ok {
			continue
		}
		out[r.URL] = r
	}
	return out
}
