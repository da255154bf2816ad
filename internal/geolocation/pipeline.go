// Package geolocation turns search results into map-ready incidents. It is best
// effort: the LLM is tried when configured, keyword heuristics cover the rest,
// and Process reports failure only through its Result.
package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"safewatch/internal/llm"
	"safewatch/internal/prompt"
	"safewatch/internal/repository/artifact"
	"safewatch/internal/types"
	"safewatch/internal/util/jsonutil"
)

const (
	ArtifactPrefix = "geolocation/"

	llmTemperature = 0.2
	llmMaxTokens   = 3000
)

type Config struct {
	// LLM is optional; without it only the heuristics run.
	LLM    llm.Client
	Store  artifact.Store
	Logger *log.Logger
	Now    func() time.Time
}

type Pipeline struct {
	llm    llm.Client
	store  artifact.Store
	logger *log.Logger
	now    func() time.Time
}

func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{llm: cfg.LLM, store: cfg.Store, logger: cfg.Logger, now: cfg.Now}
}

type Result struct {
	Success            bool                `json:"success"`
	IncidentsGenerated int                 `json:"incidentsGenerated"`
	Error              string              `json:"error,omitempty"`
	ArtifactKey        string              `json:"artifactKey,omitempty"`
	Method             string              `json:"method,omitempty"`
	Incidents          []types.GeoIncident `json:"-"`
}

const (
	MethodLLM       = "llm"
	MethodHeuristic = "heuristic"
)

// Process never panics and never returns an error value; failures end up in
// Result.Error with Success false.
func (p *Pipeline) Process(ctx context.Context, query string, results []types.SearchResult) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("geolocation: recovered from panic: %v", r)
			res.Success = false
			res.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	incidents, method := p.generate(ctx, query, results)
	res.Method = method
	res.Incidents = incidents
	res.IncidentsGenerated = len(incidents)

	key, err := p.persist(ctx, incidents)
	if err != nil {
		p.logger.Printf("geolocation: persist failed: %v", err)
		res.Error = err.Error()
		return res
	}
	res.ArtifactKey = key
	res.Success = true
	p.logger.Printf("geolocation: %d incidents via %s for %q", len(incidents), method, query)
	return res
}

func (p *Pipeline) generate(ctx context.Context, query string, results []types.SearchResult) ([]types.GeoIncident, string) {
	if p.llm != nil && len(results) > 0 {
		raws, err := p.fromLLM(ctx, query, results)
		if err == nil {
			return normalizeAll(raws), MethodLLM
		}
		p.logger.Printf("geolocation: llm branch failed, using heuristics: %v", err)
	}
	raws := make([]rawIncident, 0, len(results))
	for _, r := range results {
		raws = append(raws, heuristicIncident(query, r))
	}
	return normalizeAll(raws), MethodHeuristic
}

func (p *Pipeline) fromLLM(ctx context.Context, query string, results []types.SearchResult) (raws []rawIncident, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("llm client panicked: %v", r)
		}
	}()
	text, err := p.llm.Complete(ctx, llm.Request{
		System:      prompt.GeolocationSystemInstruction,
		User:        prompt.BuildGeolocationPrompt(query, results),
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return parseIncidents(text)
}

// parseIncidents accepts a bare array, optionally fenced or surrounded by prose,
// or an object wrapping the array under "incidents".
func parseIncidents(text string) ([]rawIncident, error) {
	body := jsonutil.StripCodeFence(text)
	var raws []rawIncident
	if err := json.Unmarshal([]byte(body), &raws); err == nil {
		return nonEmpty(raws)
	}
	var wrapped struct {
		Incidents []rawIncident `json:"incidents"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil && wrapped.Incidents != nil {
		return nonEmpty(wrapped.Incidents)
	}
	start, end := strings.IndexByte(body, '['), strings.LastIndexByte(body, ']')
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in llm response")
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &raws); err != nil {
		return nil, fmt.Errorf("decode llm incidents: %w", err)
	}
	return nonEmpty(raws)
}

func nonEmpty(raws []rawIncident) ([]rawIncident, error) {
	if len(raws) == 0 {
		return nil, errors.New("llm returned no incidents")
	}
	return raws, nil
}

var keyReplacer = strings.NewReplacer(":", "-", ".", "-")

// ArtifactKey names the artifact written at t.
func ArtifactKey(t time.Time) string {
	return ArtifactPrefix + "incidents-" + keyReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z07:00")) + ".json"
}

func (p *Pipeline) persist(ctx context.Context, incidents []types.GeoIncident) (string, error) {
	if p.store == nil {
		return "", errors.New("artifact store is not configured")
	}
	if incidents == nil {
		incidents = []types.GeoIncident{}
	}
	body, err := jsonutil.MarshalNoEscapeIndent(incidents, "  ")
	if err != nil {
		return "", err
	}
	key := ArtifactKey(p.now())
	if err := p.store.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return key, nil
}
