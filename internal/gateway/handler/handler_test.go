package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safewatch/internal/geolocation"
	"safewatch/internal/incident"
	"safewatch/internal/llm"
	"safewatch/internal/repository/artifact"
	incidentrepo "safewatch/internal/repository/incident"
	"safewatch/internal/repository/report"
	"safewatch/internal/search"
	"safewatch/internal/task"
	"safewatch/internal/types"
)

type staticSearcher struct {
	results []types.SearchResult
	err     error
}

func (s staticSearcher) Search(context.Context, string) ([]types.SearchResult, error) {
	return s.results, s.err
}

var edgemeadResults = []types.SearchResult{
	{Title: "Armed robbery at Edgemead shop", URL: "https://news.example/robbery", Source: "IOL", Snippet: "Two suspects fled."},
	{Title: "Burglary wave in Edgemead", URL: "https://news.example/burglary", Source: "News24", Snippet: "Residents urged to lock up."},
}

func alertBody(t *testing.T, urls ...string) string {
	t.Helper()
	alerts := make([]map[string]any, 0, len(urls))
	for i, u := range urls {
		alerts = append(alerts, map[string]any{
			"id":        "a" + string(rune('1'+i)),
			"title":     "Alert " + string(rune('1'+i)),
			"severity":  "high",
			"alertType": "crime",
			"sourceUrl": u,
		})
	}
	b, err := json.Marshal(map[string]any{"alerts": alerts})
	require.NoError(t, err)
	return string(b)
}

type fixture struct {
	handler   *Handler
	incidents *incidentrepo.MemoryStore
	artifacts *artifact.MemoryStore
	spawned   chan *task.Handle
	logs      *bytes.Buffer
}

func newFixture(t *testing.T, searcher search.Searcher, client llm.Client) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := log.New(logs, "", 0)
	incidents := incidentrepo.NewMemoryStore()
	artifacts := artifact.NewMemoryStore()
	p, err := incident.New(incident.Config{
		Searcher:  searcher,
		LLM:       client,
		Incidents: incidents,
		Logger:    logger,
	})
	require.NoError(t, err)
	h := New(Deps{
		Alerts:    p,
		Geo:       geolocation.New(geolocation.Config{Store: artifacts, Logger: logger}),
		Incidents: incidents,
		Reports:   report.NewMemoryStore(),
		Logger:    logger,
	})
	f := &fixture{handler: h, incidents: incidents, artifacts: artifacts, spawned: make(chan *task.Handle, 1), logs: logs}
	h.afterSpawn = func(th *task.Handle) { f.spawned <- th }
	return f
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

const edgemeadRequest = `{"location":"Coetzenberg Way, Edgemead, Cape Town","radius":5,"coordinates":{"lat":-33.87,"lng":18.55}}`

func TestGenerateAlertsSucceedsAndSpawnsGeolocation(t *testing.T) {
	f := newFixture(t, staticSearcher{results: edgemeadResults},
		llm.NewFakeClient(llm.FakeResponse{Text: alertBody(t, edgemeadResults[0].URL, edgemeadResults[1].URL)}))

	rec := post(f.handler.HandleGenerateAlerts, edgemeadRequest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Alerts, 2)
	assert.Equal(t, 2, out.Persisted)
	assert.Equal(t, `"Edgemead" crime incidents safety news recent today`, out.Query)

	select {
	case th := <-f.spawned:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, th.Wait(ctx))
	case <-time.After(5 * time.Second):
		t.Fatal("geolocation was not spawned")
	}
	keys, err := f.artifacts.List(context.Background(), geolocation.ArtifactPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestGenerateAlertsBadJSON(t *testing.T) {
	f := newFixture(t, staticSearcher{results: edgemeadResults}, llm.NewFakeClient())
	rec := post(f.handler.HandleGenerateAlerts, `{"location":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateAlertsMissingLocation(t *testing.T) {
	f := newFixture(t, staticSearcher{results: edgemeadResults}, llm.NewFakeClient())
	rec := post(f.handler.HandleGenerateAlerts, `{"location":"","radius":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "location")
}

func TestGenerateAlertsStageFailures(t *testing.T) {
	cases := []struct {
		name     string
		searcher search.Searcher
		client   llm.Client
		want     int
	}{
		{name: "no results", searcher: staticSearcher{}, client: llm.NewFakeClient(), want: http.StatusBadGateway},
		{name: "search key missing", searcher: staticSearcher{err: search.ErrMissingAPIKey}, client: llm.NewFakeClient(), want: http.StatusServiceUnavailable},
		{name: "llm error", searcher: staticSearcher{results: edgemeadResults}, client: llm.NewFakeClient(llm.FakeResponse{Err: errors.New("boom")}), want: http.StatusBadGateway},
		{name: "unparseable", searcher: staticSearcher{results: edgemeadResults}, client: llm.NewFakeClient(llm.FakeResponse{Text: "sorry, no"}), want: http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.searcher, tc.client)
			rec := post(f.handler.HandleGenerateAlerts, edgemeadRequest)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			select {
			case <-f.spawned:
				t.Fatal("geolocation must not run after a failure")
			default:
			}
		})
	}
}

func TestGenerateAlertsUnconfigured(t *testing.T) {
	h := New(Deps{})
	rec := post(h.HandleGenerateAlerts, edgemeadRequest)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGeolocationAlways200(t *testing.T) {
	f := newFixture(t, staticSearcher{}, llm.NewFakeClient())

	rec := post(f.handler.HandleGeolocation, `{"query":"robbery in Milnerton","searchResults":[{"title":"Robbery near Milnerton mall","url":"https://x/1"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res geolocation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.IncidentsGenerated)

	rec = post(f.handler.HandleGeolocation, `not json`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestListIncidents(t *testing.T) {
	f := newFixture(t, staticSearcher{}, llm.NewFakeClient())
	for _, title := range []string{"first", "second"} {
		_, err := f.incidents.Insert(context.Background(), types.IncidentRecord{Title: title, SourceURL: "https://x/" + title, Severity: 3})
		require.NoError(t, err)
	}
	rec := httptest.NewRecorder()
	f.handler.HandleListIncidents(rec, httptest.NewRequest(http.MethodGet, "/api/incidents?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Incidents []types.IncidentRecord `json:"incidents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Incidents, 1)
	assert.Equal(t, "second", out.Incidents[0].Title)
}

func TestReportsRoundTrip(t *testing.T) {
	f := newFixture(t, staticSearcher{}, llm.NewFakeClient())

	rec := post(f.handler.HandleCreateReport, `{"type":"Theft","address":"1 Main Rd"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id"`)

	rec = post(f.handler.HandleCreateReport, `{"type":"theft"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.HandleRecentReports(rec, httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Reports []types.RecentReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Reports, 1)
	assert.Equal(t, "theft", out.Reports[0].Type)
	assert.Equal(t, "medium", out.Reports[0].Severity)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Deps{}).HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
