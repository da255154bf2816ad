package types

// CrimeCategory is the six-member taxonomy used by the geolocation pipeline.
type CrimeCategory string

const (
	CategoryAssault   CrimeCategory = "assault"
	CategoryRobbery   CrimeCategory = "robbery"
	CategoryBurglary  CrimeCategory = "burglary"
	CategoryTheft     CrimeCategory = "theft"
	CategoryVandalism CrimeCategory = "vandalism"
	CategoryOther     CrimeCategory = "other"
)

var CrimeCategories = []CrimeCategory{
	CategoryAssault, CategoryRobbery, CategoryBurglary, CategoryTheft, CategoryVandalism, CategoryOther,
}

// GeoIncident is a map-ready incident. Title, Coordinates, Type, Severity,
// Keywords and Summary are always populated after validation.
type GeoIncident struct {
	Title       string        `json:"title"`
	Coordinates [2]float64    `json:"coordinates"`
	Type        CrimeCategory `json:"type"`
	Severity    int           `json:"severity"`
	Keywords    []string      `json:"keywords"`
	Summary     string        `json:"summary"`
	Source      string        `json:"source,omitempty"`
	URL         string        `json:"url,omitempty"`
}
