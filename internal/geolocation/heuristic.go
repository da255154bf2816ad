package geolocation

import (
	"regexp"
	"strings"

	"safewatch/internal/types"
)

type place struct {
	name string
	lat  float64
	lng  float64
}

// knownPlaces is checked in order; cape town last so suburbs win.
var knownPlaces = []place{
	{"edgemead", -33.8706, 18.5540},
	{"milnerton", -33.8770, 18.4960},
	{"table view", -33.8220, 18.4900},
	{"durbanville", -33.8320, 18.6470},
	{"bellville", -33.9000, 18.6290},
	{"parow", -33.9000, 18.5830},
	{"goodwood", -33.9120, 18.5560},
	{"sea point", -33.9180, 18.3870},
	{"woodstock", -33.9260, 18.4480},
	{"cape town", -33.9249, 18.4241},
}

var defaultPlace = place{"cape town", -33.9249, 18.4241}

var categoryKeywords = []struct {
	category types.CrimeCategory
	words    []string
}{
	{types.CategoryAssault, []string{"assault", "attack", "stab", "shooting", "shot ", "murder", "killed"}},
	{types.CategoryRobbery, []string{"robbery", "robbed", "hijack", "mugging", "mugged", "armed"}},
	{types.CategoryBurglary, []string{"burglary", "burglar", "break-in", "housebreaking", "broke into"}},
	{types.CategoryTheft, []string{"theft", "stolen", "steal", "shoplift", "pickpocket"}},
	{types.CategoryVandalism, []string{"vandal", "graffiti", "arson", "damage"}},
}

var categorySeverity = map[types.CrimeCategory]int{
	types.CategoryAssault:   4,
	types.CategoryRobbery:   4,
	types.CategoryBurglary:  3,
	types.CategoryTheft:     2,
	types.CategoryVandalism: 2,
	types.CategoryOther:     1,
}

var vocabulary = []string{
	"robbery", "theft", "burglary", "assault", "vandalism", "hijacking", "shooting", "stabbing",
	"murder", "mugging", "break-in", "arrest", "police", "gang", "drugs", "firearm", "vehicle",
	"suspect", "community", "patrol",
}

var (
	quotedPhrase = regexp.MustCompile(`"([^"]+)"`)
	inPhrase     = regexp.MustCompile(`(?i)\bin\s+(.+)$`)
)

// locationPhrase pulls the place out of a search query: a quoted phrase first,
// then whatever follows " in ", else the whole query.
func locationPhrase(query string) string {
	query = strings.TrimSpace(query)
	if m := quotedPhrase.FindStringSubmatch(query); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := inPhrase.FindStringSubmatch(query); m != nil {
		return strings.TrimSpace(m[1])
	}
	return query
}

func lookupPlace(texts ...string) place {
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, p := range knownPlaces {
			if strings.Contains(lower, p.name) {
				return p
			}
		}
	}
	return defaultPlace
}

func classify(title string) types.CrimeCategory {
	lower := strings.ToLower(title) + " "
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.category
			}
		}
	}
	return types.CategoryOther
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, w := range vocabulary {
		if strings.Contains(lower, w) {
			out = append(out, w)
		}
	}
	return out
}

func heuristicIncident(query string, r types.SearchResult) rawIncident {
	loc := lookupPlace(locationPhrase(query), r.Title, r.Snippet)
	cat := classify(r.Title)
	summary := strings.TrimSpace(r.Snippet)
	if summary == "" {
		summary = r.Title
	}
	return rawIncident{
		Title:       r.Title,
		Coordinates: []any{loc.lat, loc.lng},
		Type:        string(cat),
		Severity:    categorySeverity[cat],
		Keywords:    toAny(extractKeywords(r.Title + " " + r.Snippet)),
		Summary:     summary,
		Source:      r.Source,
		URL:         r.URL,
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
