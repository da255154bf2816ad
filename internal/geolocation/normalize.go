package geolocation

import (
	"math"
	"strconv"
	"strings"

	"safewatch/internal/types"
)

// rawIncident is an incident as produced by either branch, before validation.
// The loosely typed fields take whatever the LLM emitted.
type rawIncident struct {
	Title       string `json:"title"`
	Coordinates any    `json:"coordinates"`
	Type        string `json:"type"`
	Severity    any    `json:"severity"`
	Keywords    any    `json:"keywords"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	URL         string `json:"url"`
}

const untitled = "Reported incident"

func normalizeAll(raws []rawIncident) []types.GeoIncident {
	out := make([]types.GeoIncident, 0, len(raws))
	for _, r := range raws {
		out = append(out, normalize(r))
	}
	return out
}

// normalize guarantees the six required fields: severity in [1,5], a valid
// coordinate pair or [0,0], a taxonomy member, and non-empty text.
func normalize(r rawIncident) types.GeoIncident {
	g := types.GeoIncident{
		Title:       strings.TrimSpace(r.Title),
		Coordinates: coordinates(r.Coordinates),
		Type:        category(r.Type),
		Severity:    clampSeverity(r.Severity),
		Keywords:    keywordList(r.Keywords),
		Summary:     strings.TrimSpace(r.Summary),
		Source:      strings.TrimSpace(r.Source),
		URL:         strings.TrimSpace(r.URL),
	}
	if g.Title == "" {
		g.Title = untitled
	}
	if g.Summary == "" {
		g.Summary = g.Title
	}
	if len(g.Keywords) == 0 {
		g.Keywords = []string{string(g.Type)}
	}
	return g
}

func clampSeverity(v any) int {
	f, ok := number(v)
	if !ok || math.IsNaN(f) {
		return 1
	}
	switch r := math.Round(f); {
	case r < 1:
		return 1
	case r > 5:
		return 5
	default:
		return int(r)
	}
}

func coordinates(v any) [2]float64 {
	var lat, lng any
	switch c := v.(type) {
	case []any:
		if len(c) != 2 {
			return [2]float64{}
		}
		lat, lng = c[0], c[1]
	case [2]float64:
		lat, lng = c[0], c[1]
	case map[string]any:
		lat, lng = c["lat"], c["lng"]
		if lng == nil {
			lng = c["lon"]
		}
	default:
		return [2]float64{}
	}
	la, ok1 := number(lat)
	ln, ok2 := number(lng)
	if !ok1 || !ok2 || math.IsNaN(la) || math.IsNaN(ln) || math.Abs(la) > 90 || math.Abs(ln) > 180 {
		return [2]float64{}
	}
	return [2]float64{la, ln}
}

func category(s string) types.CrimeCategory {
	c := types.CrimeCategory(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range types.CrimeCategories {
		if c == known {
			return c
		}
	}
	return types.CategoryOther
}

func keywordList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, isStr := v.(string); isStr {
			items = make([]any, 0, 4)
			for _, part := range strings.Split(s, ",") {
				items = append(items, part)
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
