package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"safewatch/internal/types"
)

// GeolocationSystemInstruction is the system message for the geolocation call.
const GeolocationSystemInstruction = "You geolocate crime news. Answer with a bare JSON array and no prose."

// BuildGeolocationPrompt asks for one incident per search result with coordinates,
// a category from the fixed taxonomy and a 1-5 severity.
func BuildGeolocationPrompt(query string, results []types.SearchResult) string {
	cats := make([]string, 0, len(types.CrimeCategories))
	for _, c := range types.CrimeCategories {
		cats = append(cats, string(c))
	}

	var buf bytes.Buffer
	writeSection(&buf, "QUERY", strings.TrimSpace(query))
	writeSection(&buf, "SEARCH_RESULTS", formatSearchResults(results))
	writeSection(&buf, "INSTRUCTIONS", formatList([]string{
		fmt.Sprintf("Return one incident per search result (%d total).", len(results)),
		"coordinates is [latitude, longitude] of the most specific place mentioned.",
		"type is one of: " + strings.Join(cats, ", ") + ".",
		"severity is an integer from 1 (minor) to 5 (violent or life-threatening).",
		"summary is one sentence; keywords are lowercase.",
	}))
	writeSection(&buf, "OUTPUT_FORMAT", `[
  {"title": "string", "coordinates": [0.0, 0.0], "type": "string", "severity": 1, "keywords": ["string"], "summary": "string", "source": "string", "url": "string"}
]`)
	return strings.TrimSpace(buf.String()) + "\n"
}
