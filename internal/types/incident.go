package types

import "time"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IncidentRecord is the persisted form of a validated alert.
type IncidentRecord struct {
	ID              string       `json:"id,omitempty"`
	AlertID         string       `json:"alert_id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Summary         string       `json:"summary"`
	Severity        int          `json:"severity"`
	Type            string       `json:"type"`
	Location        string       `json:"location"`
	Area            string       `json:"area"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	IncidentDate    string       `json:"incident_date"`
	Source          string       `json:"source"`
	SourceURL       string       `json:"source_url"`
	Keywords        []string     `json:"keywords"`
	Recommendations string       `json:"recommendations"`
	CreatedAt       time.Time    `json:"created_at"`
}
