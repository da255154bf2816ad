package grounding

import (
	"bytes"
	"fmt"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safewatch/internal/types"
)

var fixedNow = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func results(n int) []types.SearchResult {
	out := make([]types.SearchResult, n)
	for i := range out {
		out[i] = types.SearchResult{
			Title:  fmt.Sprintf("Result %d", i),
			URL:    fmt.Sprintf("https://news.example/%d", i),
			Source: "Example News",
		}
	}
	return out
}

func newValidator(buf *bytes.Buffer) Validator {
	return Validator{
		Logger: log.New(buf, "", 0),
		Now:    func() time.Time { return fixedNow },
		NewID:  func() string { return "generated-id" },
	}
}

func TestValidateAllGroundedPreservesOrder(t *testing.T) {
	res := results(3)
	candidates := []types.Alert{
		{ID: "c", Title: "third", SourceURL: res[2].URL, Severity: "high", AlertType: "crime"},
		{ID: "a", Title: "first", SourceURL: res[0].URL, Severity: "low", AlertType: "traffic"},
		{ID: "b", Title: "second", SourceURL: res[1].URL, Severity: "critical", AlertType: "emergency"},
	}
	var buf bytes.Buffer
	got := newValidator(&buf).Validate(candidates, res)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Empty(t, buf.String())
}

func TestValidateDropsHallucinatedURL(t *testing.T) {
	res := results(3)
	candidates := []types.Alert{
		{ID: "a", SourceURL: res[0].URL},
		{ID: "fake", Title: "Invented", SourceURL: "https://news.example/999"},
		{ID: "b", SourceURL: res[1].URL + "?utm=1"},
		{ID: "c", SourceURL: res[2].URL},
	}
	var buf bytes.Buffer
	got := newValidator(&buf).Validate(candidates, res)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Contains(t, buf.String(), `dropping alert 1 ("Invented")`)
	assert.Contains(t, buf.String(), "https://news.example/999")
	assert.Contains(t, buf.String(), "kept 2 of 4 alerts")
}

func TestValidateEmptyURLNeverGrounds(t *testing.T) {
	res := append(results(1), types.SearchResult{Title: "no link", Source: "Daily"})
	candidates := []types.Alert{
		{ID: "blank", Title: "Blank", SourceURL: ""},
		{ID: "a", SourceURL: res[0].URL},
	}
	var buf bytes.Buffer
	got := newValidator(&buf).Validate(candidates, res)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Contains(t, buf.String(), `dropping alert 0 ("Blank")`)
}

func TestValidateGroundingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	res := results(5)
	valid := types.URLSet(res)

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(12)
		candidates := make([]types.Alert, n)
		wantIDs := []string{}
		for i := range candidates {
			id := fmt.Sprintf("%d-%d", iter, i)
			var url string
			switch rng.Intn(3) {
			case 0:
				url = res[rng.Intn(len(res))].URL
				wantIDs = append(wantIDs, id)
			case 1:
				url = fmt.Sprintf("https://fake.example/%d", rng.Intn(100))
			default:
				url = ""
			}
			candidates[i] = types.Alert{ID: id, SourceURL: url}
		}

		if len(wantIDs) > len(res) {
			wantIDs = wantIDs[:len(res)]
		}

		var buf bytes.Buffer
		got := newValidator(&buf).Validate(candidates, res)
		gotIDs := []string{}
		for _, a := range got {
			_, ok := valid[a.SourceURL]
			require.True(t, ok, "ungrounded url %q", a.SourceURL)
			gotIDs = append(gotIDs, a.ID)
		}
		require.Equal(t, wantIDs, gotIDs)
	}
}

func TestValidateCountBound(t *testing.T) {
	res := results(2)
	candidates := []types.Alert{{ID: "1", SourceURL: res[0].URL}, {ID: "2", SourceURL: res[0].URL}, {ID: "3", SourceURL: res[1].URL}}
	var buf bytes.Buffer
	got := Validate(candidates, res, log.New(&buf, "", 0))
	require.Len(t, got, len(res))
	assert.Equal(t, "2", got[1].ID)
	assert.Contains(t, buf.String(), "more alerts than search results")
	assert.Empty(t, Validate(nil, res, nil))
}

func TestValidateEnumNormalization(t *testing.T) {
	res := results(1)
	var buf bytes.Buffer
	v := newValidator(&buf)

	for _, s := range types.Severities {
		got := v.Validate([]types.Alert{{SourceURL: res[0].URL, Severity: s}}, res)
		assert.Equal(t, s, got[0].Severity)
	}
	for _, at := range types.AlertTypes {
		got := v.Validate([]types.Alert{{SourceURL: res[0].URL, AlertType: at}}, res)
		assert.Equal(t, at, got[0].AlertType)
	}
	for _, bad := range []string{"", "severe", "5", "urgent!!"} {
		got := v.Validate([]types.Alert{{SourceURL: res[0].URL, Severity: types.Severity(bad), AlertType: types.AlertType(bad)}}, res)
		assert.Equal(t, types.SeverityMedium, got[0].Severity, bad)
		assert.Equal(t, types.AlertTypeSafety, got[0].AlertType, bad)
	}

	got := v.Validate([]types.Alert{{SourceURL: res[0].URL, Severity: " HIGH ", AlertType: "Crime"}}, res)
	assert.Equal(t, types.SeverityHigh, got[0].Severity)
	assert.Equal(t, types.AlertTypeCrime, got[0].AlertType)
}

func TestValidateDefaults(t *testing.T) {
	res := []types.SearchResult{{Title: "t", URL: "https://a"}, {Title: "t", URL: "https://b", Source: "Daily"}}
	var buf bytes.Buffer
	got := newValidator(&buf).Validate([]types.Alert{
		{SourceURL: "https://a", Timestamp: "yesterday"},
		{SourceURL: "https://b", Title: "Hijacking", Location: "Parow", Timestamp: "2026-01-05"},
	}, res)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "generated-id", a.ID)
	assert.Equal(t, DefaultTitle, a.Title)
	assert.Equal(t, DefaultTitle, a.ShortDescription)
	assert.Equal(t, DefaultTitle, a.LongDescription)
	assert.Equal(t, DefaultLocation, a.Location)
	assert.Equal(t, DefaultLocation, a.Area)
	assert.Equal(t, DefaultSource, a.Source)
	assert.Equal(t, DefaultRecommendations, a.Recommendations)
	assert.Equal(t, []string{}, a.Keywords)
	assert.Equal(t, "2026-02-03T04:05:06Z", a.Timestamp)

	b := got[1]
	assert.Equal(t, "Hijacking", b.ShortDescription)
	assert.Equal(t, "Parow", b.Area)
	assert.Equal(t, "Daily", b.Source)
	assert.Equal(t, "2026-01-05T00:00:00Z", b.Timestamp)
}

func TestValidateKeepsValidTimestamp(t *testing.T) {
	res := results(1)
	got := Validate([]types.Alert{{SourceURL: res[0].URL, Timestamp: "2026-01-02T10:00:00+02:00"}}, res, log.New(&bytes.Buffer{}, "", 0))
	assert.Equal(t, "2026-01-02T10:00:00+02:00", got[0].Timestamp)
	assert.NotEmpty(t, got[0].ID)

	cases := []struct {
		in   string
		want string
	}{
		{in: "2026-01-02T10:00:00", want: "2026-01-02T10:00:00Z"},
		{in: "2026-01-02T10:00", want: "2026-01-02T10:00:00Z"},
		{in: "2026-01-02 10:00:00Z", want: "2026-01-02T10:00:00Z"},
		{in: "2026-01-02 10:00:00+02:00", want: "2026-01-02T10:00:00+02:00"},
		{in: "2026-01-02T10:00:00.000+0200", want: "2026-01-02T10:00:00+02:00"},
		{in: "2026-01-02T10:00:00.5Z", want: "2026-01-02T10:00:00.5Z"},
	}
	v := Validator{Logger: log.New(&bytes.Buffer{}, "", 0), Now: func() time.Time { return fixedNow }}
	for _, tc := range cases {
		got := v.Validate([]types.Alert{{SourceURL: res[0].URL, Timestamp: tc.in}}, res)
		require.Len(t, got, 1)
		assert.Equal(t, tc.want, got[0].Timestamp, "input %q", tc.in)
	}
}

func TestToIncidentRecord(t *testing.T) {
	coords := &types.Coordinates{Lat: -33.8, Lng: 18.5}
	rec := ToIncidentRecord(types.Alert{
		ID: "a1", Title: "t", ShortDescription: "s", LongDescription: "l",
		Severity: types.SeverityCritical, AlertType: types.AlertTypeCrime,
		Timestamp: "2026-01-02T10:00:00Z", SourceURL: "https://a", Keywords: []string{"k"},
	}, coords)
	assert.Equal(t, 5, rec.Severity)
	assert.Equal(t, "2026-01-02T10:00:00Z", rec.IncidentDate)
	assert.Equal(t, "l", rec.Description)
	assert.Equal(t, "s", rec.Summary)
	assert.Equal(t, "crime", rec.Type)
	require.NotNil(t, rec.Coordinates)
	coords.Lat = 0
	assert.Equal(t, -33.8, rec.Coordinates.Lat)

	for sev, want := range map[types.Severity]int{"low": 1, "medium": 2, "high": 4, "critical": 5} {
		assert.Equal(t, want, ToIncidentRecord(types.Alert{Severity: sev}, nil).Severity)
	}
	assert.Nil(t, ToIncidentRecord(types.Alert{}, nil).Coordinates)
}
