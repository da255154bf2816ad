// Package incident runs the strict alert pipeline: search, generate, parse,
// ground, persist. Any stage failure ends the run; nothing is made up to fill
// the gap.
package incident

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"

	"safewatch/internal/alertparse"
	"safewatch/internal/grounding"
	"safewatch/internal/llm"
	"safewatch/internal/prompt"
	"safewatch/internal/search"
	"safewatch/internal/types"
)

var (
	ErrLocationRequired = errors.New("incident: location and coordinates are required")
	ErrNoSearchResults  = errors.New("incident: search returned no results")
)

const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 4000
	recentReportLimit  = 10
)

// Stage names used to wrap errors.
const (
	StageSearch   = "search"
	StageGenerate = "generate"
	StageParse    = "parse"
)

type IncidentStore interface {
	Insert(ctx context.Context, rec types.IncidentRecord) (string, error)
}

type ReportSource interface {
	Recent(ctx context.Context, limit int) ([]types.RecentReport, error)
}

// Notifier receives the validated alerts of every successful run.
type Notifier interface {
	Notify(ctx context.Context, alerts []types.Alert)
}

type Config struct {
	Searcher search.Searcher
	LLM      llm.Client
	// Parser defaults to alertparse.New(nil).
	Parser    alertparse.ResponseParser
	Incidents IncidentStore
	Reports   ReportSource
	Notifier  Notifier
	Logger    *log.Logger

	Temperature float32
	MaxTokens   int
}

type Pipeline struct {
	searcher  search.Searcher
	llm       llm.Client
	parser    alertparse.ResponseParser
	validator grounding.Validator
	incidents IncidentStore
	reports   ReportSource
	notifier  Notifier
	logger    *log.Logger

	temperature float32
	maxTokens   int
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("incident: searcher is required")
	}
	if cfg.LLM == nil {
		return nil, fmt.Errorf("incident: llm client is required")
	}
	if cfg.Parser == nil {
		cfg.Parser = alertparse.New(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Pipeline{
		searcher:    cfg.Searcher,
		llm:         cfg.LLM,
		parser:      cfg.Parser,
		validator:   grounding.Validator{Logger: cfg.Logger},
		incidents:   cfg.Incidents,
		reports:     cfg.Reports,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

type Request struct {
	Location    string             `json:"location"`
	RadiusKm    float64            `json:"radius"`
	Coordinates *types.Coordinates `json:"coordinates,omitempty"`
	Country     string             `json:"country,omitempty"`
}

type Result struct {
	Query         string               `json:"query"`
	SearchResults []types.SearchResult `json:"searchResults"`
	Alerts        []types.Alert        `json:"alerts"`
	Persisted     int                  `json:"persisted"`
	Mode          alertparse.Mode      `json:"mode,omitempty"`
}

// Generate runs every stage in order and fails on the first error. Persistence
// failures are logged and skipped.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" || req.Coordinates == nil {
		return nil, ErrLocationRequired
	}
	started := time.Now()
	res := &Result{Query: search.BuildQuery(location)}

	results, err := p.searcher.Search(ctx, res.Query)
	if err != nil {
		if errors.Is(err, search.ErrNoResults) {
			err = fmt.Errorf("%w: %w", ErrNoSearchResults, err)
		}
		return nil, errors.Wrap(err, StageSearch)
	}
	if len(results) == 0 {
		return nil, errors.Wrap(ErrNoSearchResults, StageSearch)
	}
	res.SearchResults = results

	userMsg := prompt.BuildContext(prompt.AlertContext{
		Location:      location,
		RadiusKm:      req.RadiusKm,
		Coordinates:   req.Coordinates,
		Country:       req.Country,
		RecentReports: p.recentReports(ctx),
		SearchResults: results,
	})

	raw, err := p.llm.Complete(ctx, llm.Request{
		System:      prompt.AlertSystemInstruction,
		User:        userMsg,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, errors.Wrap(err, StageGenerate)
	}

	candidates, mode, err := p.parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, StageParse)
	}
	res.Mode = mode
	if mode == alertparse.ModeRecovered {
		p.logger.Printf("incident: strict parse failed, recovered %d alerts", len(candidates))
	}

	res.Alerts = p.validator.Validate(candidates, results)
	res.Persisted = p.persist(ctx, res.Alerts, req.Coordinates)
	if p.notifier != nil && len(res.Alerts) > 0 {
		p.notifier.Notify(ctx, res.Alerts)
	}
	p.logger.Printf("incident: %q -> %d results, %d alerts, %d persisted in %s",
		location, len(results), len(res.Alerts), res.Persisted, time.Since(started).Round(time.Millisecond))
	return res, nil
}

// GenerateAlerts runs the pipeline and returns only the validated alerts.
func GenerateAlerts(ctx context.Context, p *Pipeline, location string, radiusKm float64, coords *types.Coordinates, country string) ([]types.Alert, error) {
	res, err := p.Generate(ctx, Request{Location: location, RadiusKm: radiusKm, Coordinates: coords, Country: country})
	if err != nil {
		return nil, err
	}
	return res.Alerts, nil
}

// recentReports enriches the prompt; a failure only costs that context.
func (p *Pipeline) recentReports(ctx context.Context) []types.RecentReport {
	if p.reports == nil {
		return nil
	}
	reports, err := p.reports.Recent(ctx, recentReportLimit)
	if err != nil {
		p.logger.Printf("incident: recent reports unavailable: %v", err)
		return nil
	}
	return reports
}

type modeParser interface {
	ParseWithMode(raw string) (alertparse.Result, error)
}

func (p *Pipeline) parse(raw string) ([]types.Alert, alertparse.Mode, error) {
	if mp, ok := p.parser.(modeParser); ok {
		r, err := mp.ParseWithMode(raw)
		return r.Alerts, r.Mode, err
	}
	alerts, err := p.parser.Parse(raw)
	return alerts, "", err
}

func (p *Pipeline) persist(ctx context.Context, alerts []types.Alert, coords *types.Coordinates) int {
	if p.incidents == nil {
		return 0
	}
	n := 0
	for _, a := range alerts {
		if _, err := p.incidents.Insert(ctx, grounding.ToIncidentRecord(a, coords)); err != nil {
			p.logger.Printf("incident: persist %s (%q) failed: %v", a.ID, a.Title, err)
			continue
		}
		n++
	}
	return n
}
