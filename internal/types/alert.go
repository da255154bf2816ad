package types

import "strings"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists the allowed severities in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity accepts the enum value in any case with surrounding space.
func ParseSeverity(s string) (Severity, bool) {
	v := Severity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Severities {
		if v == known {
			return v, true
		}
	}
	return "", false
}

// Score maps the four-level severity onto the 1-5 scale used by stored incidents.
func (s Severity) Score() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 4
	case SeverityCritical:
		return 5
	default:
		return 2
	}
}

type AlertType string

const (
	AlertTypeCrime     AlertType = "crime"
	AlertTypeSafety    AlertType = "safety"
	AlertTypeWeather   AlertType = "weather"
	AlertTypeTraffic   AlertType = "traffic"
	AlertTypeEmergency AlertType = "emergency"
)

var AlertTypes = []AlertType{AlertTypeCrime, AlertTypeSafety, AlertTypeWeather, AlertTypeTraffic, AlertTypeEmergency}

func ParseAlertType(s string) (AlertType, bool) {
	v := AlertType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AlertTypes {
		if v == known {
			return v, true
		}
	}
	return "", false
}

// Alert is the wire shape of a safety alert. Values produced by the LLM are
// candidates; only the output of grounding.Validate may be shown or stored.
type Alert struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	LongDescription  string    `json:"longDescription"`
	Severity         Severity  `json:"severity"`
	Location         string    `json:"location"`
	Area             string    `json:"area"`
	Timestamp        string    `json:"timestamp"`
	Source           string    `json:"source"`
	SourceURL        string    `json:"sourceUrl"`
	AlertType        AlertType `json:"alertType"`
	Keywords         []string  `json:"keywords"`
	Recommendations  string    `json:"recommendations"`
}
