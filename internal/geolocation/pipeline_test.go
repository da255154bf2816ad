package geolocation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safewatch/internal/llm"
	"safewatch/internal/repository/artifact"
	"safewatch/internal/types"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)

func newPipeline(client llm.Client, store artifact.Store, logs *bytes.Buffer) *Pipeline {
	return New(Config{
		LLM:    client,
		Store:  store,
		Logger: log.New(logs, "", 0),
		Now:    func() time.Time { return fixedNow },
	})
}

func sample() []types.SearchResult {
	return []types.SearchResult{
		{Title: "Armed robbery at Edgemead shopping centre", URL: "https://n/1", Source: "News24", Snippet: "Police arrest a suspect after the robbery."},
		{Title: "Car stolen in Parow overnight", URL: "https://n/2", Snippet: "Vehicle theft reported."},
		{Title: "Community meeting on safety", URL: "https://n/3"},
	}
}

type panickingLLM struct{}

func (panickingLLM) Name() string { return "panics" }
func (panickingLLM) Close() error { return nil }
func (panickingLLM) Complete(context.Context, llm.Request) (string, error) {
	panic("provider exploded")
}

type failingStore struct{ artifact.Store }

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("bucket gone") }

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "geolocation/incidents-2026-03-14T15-09-26-535Z.json", ArtifactKey(fixedNow))
}

func TestProcessHeuristicsWithoutLLM(t *testing.T) {
	store := artifact.NewMemoryStore()
	var logs bytes.Buffer
	res := newPipeline(nil, store, &logs).Process(context.Background(), `"Edgemead" crime incidents safety news recent today`, sample())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.IncidentsGenerated)
	assert.Equal(t, MethodHeuristic, res.Method)
	assert.Equal(t, ArtifactKey(fixedNow), res.ArtifactKey)

	inc := res.Incidents
	assert.Equal(t, types.CategoryRobbery, inc[0].Type)
	assert.Equal(t, 4, inc[0].Severity)
	assert.Equal(t, [2]float64{-33.8706, 18.5540}, inc[0].Coordinates)
	assert.Contains(t, inc[0].Keywords, "robbery")
	assert.Contains(t, inc[0].Keywords, "police")
	assert.Equal(t, "Police arrest a suspect after the robbery.", inc[0].Summary)

	assert.Equal(t, types.CategoryTheft, inc[1].Type)
	assert.Equal(t, 2, inc[1].Severity)

	assert.Equal(t, types.CategoryOther, inc[2].Type)
	assert.Equal(t, 1, inc[2].Severity)
	assert.Equal(t, "Community meeting on safety", inc[2].Summary)
	assert.NotEmpty(t, inc[2].Keywords)

	raw, err := store.Get(context.Background(), res.ArtifactKey)
	require.NoError(t, err)
	var stored []types.GeoIncident
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 3)
}

func TestProcessUsesLLMWhenAvailable(t *testing.T) {
	body := "```json\n" + `[
	  {"title": "Robbery", "coordinates": ["-33.87", "18.55"], "type": "Robbery", "severity": "4", "keywords": ["robbery"], "summary": "s", "url": "https://n/1"},
	  {"title": "Odd", "coordinates": [200, 18], "type": "kidnapping", "severity": 11, "keywords": "a, b", "summary": ""},
	  {"title": "", "coordinates": {"lat": -33.9, "lng": 18.6}, "type": "theft", "severity": "high"}
	]` + "\n```"
	client := llm.NewFakeClient(llm.FakeResponse{Text: body})
	var logs bytes.Buffer
	res := newPipeline(client, artifact.NewMemoryStore(), &logs).Process(context.Background(), "crime in Parow", sample())

	require.True(t, res.Success)
	assert.Equal(t, MethodLLM, res.Method)
	require.Len(t, res.Incidents, 3)

	a, b, c := res.Incidents[0], res.Incidents[1], res.Incidents[2]
	assert.Equal(t, [2]float64{-33.87, 18.55}, a.Coordinates)
	assert.Equal(t, types.CategoryRobbery, a.Type)
	assert.Equal(t, 4, a.Severity)

	assert.Equal(t, [2]float64{0, 0}, b.Coordinates)
	assert.Equal(t, types.CategoryOther, b.Type)
	assert.Equal(t, 5, b.Severity)
	assert.Equal(t, []string{"a", "b"}, b.Keywords)
	assert.Equal(t, "Odd", b.Summary)

	assert.Equal(t, untitled, c.Title)
	assert.Equal(t, [2]float64{-33.9, 18.6}, c.Coordinates)
	assert.Equal(t, 1, c.Severity)
	assert.Equal(t, []string{"theft"}, c.Keywords)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].JSONMode)
}

func TestProcessNeverFails(t *testing.T) {
	cases := map[string]struct {
		client  llm.Client
		store   artifact.Store
		results []types.SearchResult
		success bool
		method  string
	}{
		"empty results no llm": {nil, artifact.NewMemoryStore(), nil, true, MethodHeuristic},
		"llm error":            {llm.NewFakeClient(llm.FakeResponse{Err: errors.New("quota")}), artifact.NewMemoryStore(), sample(), true, MethodHeuristic},
		"llm prose":            {llm.NewFakeClient(llm.FakeResponse{Text: "no idea"}), artifact.NewMemoryStore(), sample(), true, MethodHeuristic},
		"llm empty array":      {llm.NewFakeClient(llm.FakeResponse{Text: "[]"}), artifact.NewMemoryStore(), sample(), true, MethodHeuristic},
		"llm panics":           {panickingLLM{}, artifact.NewMemoryStore(), sample(), true, MethodHeuristic},
		"store fails":          {nil, failingStore{}, sample(), false, MethodHeuristic},
		"no store":             {nil, nil, sample(), false, MethodHeuristic},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var logs bytes.Buffer
			var res Result
			require.NotPanics(t, func() {
				res = newPipeline(tc.client, tc.store, &logs).Process(context.Background(), "crime in Woodstock", tc.results)
			})
			assert.Equal(t, tc.success, res.Success)
			assert.Equal(t, tc.method, res.Method)
			assert.Equal(t, len(tc.results), res.IncidentsGenerated)
			if !tc.success {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestProcessStoreFailureReportsError(t *testing.T) {
	var logs bytes.Buffer
	res := newPipeline(nil, failingStore{}, &logs).Process(context.Background(), "q", sample())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "bucket gone")
	assert.Equal(t, 3, res.IncidentsGenerated)
	assert.Contains(t, logs.String(), "persist failed")
}

func TestClampSeverity(t *testing.T) {
	for in, want := range map[any]int{
		0: 1, -3: 1, 1: 1, 3: 3, 5: 5, 6: 5, 99: 5,
		2.4: 2, 4.6: 5, "3": 3, "12": 5, "-1": 1,
		"severe": 1, true: 1,
		1e300: 5, 9.3e18: 5, "1e19": 5, -1e300: 1, "-9.3e18": 1,
	} {
		got := clampSeverity(in)
		assert.Equal(t, want, got, "input %#v", in)
		assert.GreaterOrEqual(t, got, 1)
		assert.LessOrEqual(t, got, 5)
	}
	assert.Equal(t, 1, clampSeverity(nil))
}

func TestLocationPhrase(t *testing.T) {
	assert.Equal(t, "Sea Point", locationPhrase(`"Sea Point" crime incidents`))
	assert.Equal(t, "Table View", locationPhrase("robberies in Table View"))
	assert.Equal(t, "durbanville", locationPhrase("durbanville"))
}

func TestLookupPlaceDefaultsToCapeTown(t *testing.T) {
	assert.Equal(t, "bellville", lookupPlace("Bellville CBD").name)
	assert.Equal(t, defaultPlace, lookupPlace("Johannesburg"))
	assert.Equal(t, "goodwood", lookupPlace("somewhere", "Goodwood station shooting").name)
}
