package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/biter777/countries"

	"safewatch/internal/types"
)

// AlertSystemInstruction is the system message for the strict alert generation call.
const AlertSystemInstruction = "You are a community safety analyst. Generate safety alerts using ONLY the provided search results. " +
	"Never invent incidents, sources or URLs. Respond with a single JSON object and nothing else."

const noRecentReports = "No recent community reports are available for this area."

// maxRecentReports bounds the one-line summary of community reports.
const maxRecentReports = 5

// AlertContext is everything BuildContext renders.
type AlertContext struct {
	Location      string
	RadiusKm      float64
	Coordinates   *types.Coordinates
	Country       string
	RecentReports []types.RecentReport
	SearchResults []types.SearchResult
}

// BuildContext renders the user message sent to the LLM for alert generation.
// It is deterministic for a given input.
func BuildContext(in AlertContext) string {
	var buf bytes.Buffer
	writeSection(&buf, "TARGET", formatTarget(in))
	writeSection(&buf, "RECENT_REPORTS", formatRecentReports(in.RecentReports))
	writeSection(&buf, "SEARCH_RESULTS", formatSearchResults(in.SearchResults))
	writeSection(&buf, "INSTRUCTIONS", formatList(instructions(len(in.SearchResults))))
	writeSection(&buf, "OUTPUT_FORMAT", alertOutputFormat)
	return strings.TrimSpace(buf.String()) + "\n"
}

func formatTarget(in AlertContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", strings.TrimSpace(in.Location))
	if in.RadiusKm > 0 {
		fmt.Fprintf(&b, "Radius: %s km\n", trimFloat(in.RadiusKm))
	}
	if in.Coordinates != nil {
		fmt.Fprintf(&b, "Coordinates: %.4f, %.4f\n", in.Coordinates.Lat, in.Coordinates.Lng)
	}
	if c := CountryName(in.Country); c != "" {
		fmt.Fprintf(&b, "Country: %s\n", c)
	}
	return strings.TrimRight(b.String(), "\n")
}

// CountryName expands an ISO code ("ZA") or a name to the display name of the
// country. Unknown values are returned trimmed as given.
func CountryName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if c := countries.ByName(raw); c != countries.Unknown {
		return c.String()
	}
	return raw
}

func formatRecentReports(reports []types.RecentReport) string {
	if len(reports) == 0 {
		return noRecentReports
	}
	if len(reports) > maxRecentReports {
		reports = reports[:maxRecentReports]
	}
	parts := make([]string, 0, len(reports))
	for _, r := range reports {
		p := fmt.Sprintf("%s (%s) at %s", orDash(r.Type), orDash(r.Severity), orDash(r.Address))
		if !r.CreatedAt.IsZero() {
			p += " on " + r.CreatedAt.UTC().Format("2006-01-02")
		}
		parts = append(parts, p)
	}
	return fmt.Sprintf("%d recent community reports: %s.", len(parts), strings.Join(parts, "; "))
}

func formatSearchResults(results []types.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "Result %d\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		fmt.Fprintf(&b, "Source: %s\n", orDash(r.Source))
		fmt.Fprintf(&b, "Snippet: %s\n", orDash(r.Snippet))
	}
	return strings.TrimRight(b.String(), "\n")
}

func instructions(n int) []string {
	return []string{
		fmt.Sprintf("Produce exactly %d alerts, one for each search result above, in the same order.", n),
		"Each alert must set sourceUrl to the URL of its search result, copied unmodified.",
		"Never use a URL that is not listed in SEARCH_RESULTS.",
		"Only describe what the search result says. Do not add incidents that are not in the results.",
		"Keep shortDescription under 100 characters.",
		"Write concrete recommendations a resident can act on.",
	}
}

const alertOutputFormat = `Return only this JSON envelope:
{"alerts": [
  {
    "id": "string",
    "title": "string",
    "shortDescription": "string",
    "longDescription": "string",
    "severity": "low | medium | high | critical",
    "location": "string",
    "area": "string",
    "timestamp": "ISO-8601 date-time",
    "source": "string",
    "sourceUrl": "string (exact URL from SEARCH_RESULTS)",
    "alertType": "crime | safety | weather | traffic | emergency",
    "keywords": ["string"],
    "recommendations": "string"
  }
]}`

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
