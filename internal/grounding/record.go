package grounding

import "safewatch/internal/types"

// ToIncidentRecord derives the persisted form of a validated alert.
func ToIncidentRecord(a types.Alert, coords *types.Coordinates) types.IncidentRecord {
	var c *types.Coordinates
	if coords != nil {
		cp := *coords
		c = &cp
	}
	return types.IncidentRecord{
		AlertID:         a.ID,
		Title:           a.Title,
		Description:     a.LongDescription,
		Summary:         a.ShortDescription,
		Severity:        a.Severity.Score(),
		Type:            string(a.AlertType),
		Location:        a.Location,
		Area:            a.Area,
		Coordinates:     c,
		IncidentDate:    a.Timestamp,
		Source:          a.Source,
		SourceURL:       a.SourceURL,
		Keywords:        append([]string(nil), a.Keywords...),
		Recommendations: a.Recommendations,
	}
}
