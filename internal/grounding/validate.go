// Package grounding filters generated alerts down to the ones whose source URL
// was actually returned by the search step, and normalizes what is left.
package grounding

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"safewatch/internal/types"
)

const (
	DefaultTitle           = "Safety alert"
	DefaultLocation        = "Unknown location"
	DefaultSource          = "Web search"
	DefaultRecommendations = "Stay alert and report suspicious activity to local authorities."
)

// Validator normalizes candidate alerts against one batch of search results.
type Validator struct {
	Logger *log.Logger
	Now    func() time.Time
	NewID  func() string
}

// Validate is Validator{Logger: logger}.Validate.
func Validate(candidates []types.Alert, results []types.SearchResult, logger *log.Logger) []types.Alert {
	return Validator{Logger: logger}.Validate(candidates, results)
}

// Validate drops every candidate whose SourceURL is not exactly one of the result
// URLs and fills the defaults on the rest. Output order follows input order and
// never holds more alerts than there are results.
func (v Validator) Validate(candidates []types.Alert, results []types.SearchResult) []types.Alert {
	logger := v.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := v.Now
	if now == nil {
		now = time.Now
	}
	newID := v.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	known := types.URLSet(results)
	out := make([]types.Alert, 0, len(candidates))
	rejected := 0
	for i, c := range candidates {
		res, ok := known[c.SourceURL]
		if !ok {
			rejected++
			logger.Printf("grounding: dropping alert %d (%q): sourceUrl %q is not among the search results", i, c.Title, c.SourceURL)
			continue
		}
		if len(out) == len(results) {
			rejected++
			logger.Printf("grounding: dropping alert %d (%q): more alerts than search results", i, c.Title)
			continue
		}
		out = append(out, normalize(c, res, now(), newID))
	}
	if rejected > 0 {
		logger.Printf("grounding: kept %d of %d alerts", len(out), len(candidates))
	}
	return out
}

func normalize(a types.Alert, res types.SearchResult, now time.Time, newID func() string) types.Alert {
	a.ID = orDefault(a.ID, newID())
	a.Title = orDefault(a.Title, DefaultTitle)
	a.ShortDescription = orDefault(a.ShortDescription, a.Title)
	a.LongDescription = orDefault(a.LongDescription, a.ShortDescription)
	a.Location = orDefault(a.Location, DefaultLocation)
	a.Area = orDefault(a.Area, a.Location)
	a.Source = orDefault(a.Source, orDefault(res.Source, DefaultSource))
	a.Recommendations = orDefault(a.Recommendations, DefaultRecommendations)

	if s, ok := types.ParseSeverity(string(a.Severity)); ok {
		a.Severity = s
	} else {
		a.Severity = types.SeverityMedium
	}
	if t, ok := types.ParseAlertType(string(a.AlertType)); ok {
		a.AlertType = t
	} else {
		a.AlertType = types.AlertTypeSafety
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	a.Timestamp = normalizeTimestamp(a.Timestamp, now)
	return a
}

// Zone-less layouts are read as UTC.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// normalizeTimestamp keeps RFC3339 values, re-renders other common ISO-8601
// forms as RFC3339, and replaces anything else with now.
func normalizeTimestamp(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.Format(time.RFC3339Nano)
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(time.RFC3339Nano)
			}
		}
	}
	return now.UTC().Format(time.RFC3339)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
