package search

import "strings"

// Suburb extracts the neighbourhood from a structured "street, suburb, city, ..."
// address. Addresses with a single segment yield that segment.
func Suburb(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) >= 2 {
		if s := strings.TrimSpace(parts[1]); s != "" {
			return s
		}
	}
	return strings.TrimSpace(parts[0])
}

// BuildQuery renders the crime-news query for a location.
func BuildQuery(location string) string {
	return `"` + Suburb(location) + `" crime incidents safety news recent today`
}
