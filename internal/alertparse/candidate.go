package alertparse

import (
	"encoding/json"
	"strconv"
	"strings"

	"safewatch/internal/types"
)

// candidate mirrors types.Alert but tolerates the type drift models produce
// (numbers for strings, a single keyword instead of a list). Type drift is
// normalized later by the grounding validator; only syntax errors fail a parse.
type candidate struct {
	ID               flexString `json:"id"`
	Title            flexString `json:"title"`
	ShortDescription flexString `json:"shortDescription"`
	LongDescription  flexString `json:"longDescription"`
	Severity         flexString `json:"severity"`
	Location         flexString `json:"location"`
	Area             flexString `json:"area"`
	Timestamp        flexString `json:"timestamp"`
	Source           flexString `json:"source"`
	SourceURL        flexString `json:"sourceUrl"`
	AlertType        flexString `json:"alertType"`
	Keywords         flexList   `json:"keywords"`
	Recommendations  flexString `json:"recommendations"`
}

func (c candidate) alert() types.Alert {
	return types.Alert{
		ID:               string(c.ID),
		Title:            string(c.Title),
		ShortDescription: string(c.ShortDescription),
		LongDescription:  string(c.LongDescription),
		Severity:         types.Severity(c.Severity),
		Location:         string(c.Location),
		Area:             string(c.Area),
		Timestamp:        string(c.Timestamp),
		Source:           string(c.Source),
		SourceURL:        string(c.SourceURL),
		AlertType:        types.AlertType(c.AlertType),
		Keywords:         []string(c.Keywords),
		Recommendations:  string(c.Recommendations),
	}
}

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = flexString(scalarString(v))
	return nil
}

// flexList keeps string elements of an array; anything else decodes to nil.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	arr, ok := v.([]any)
	if !ok {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := strings.TrimSpace(scalarString(item)); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
