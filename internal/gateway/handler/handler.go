// Package handler exposes the alert and geolocation pipelines over JSON HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"safewatch/internal/geolocation"
	"safewatch/internal/incident"
	"safewatch/internal/task"
	"safewatch/internal/types"
)

type AlertGenerator interface {
	Generate(ctx context.Context, req incident.Request) (*incident.Result, error)
}

type GeoProcessor interface {
	Process(ctx context.Context, query string, results []types.SearchResult) geolocation.Result
}

type IncidentLister interface {
	List(ctx context.Context, limit int) ([]types.IncidentRecord, error)
}

type ReportStore interface {
	Insert(ctx context.Context, r types.CrimeReport) (string, error)
	Recent(ctx context.Context, limit int) ([]types.RecentReport, error)
}

// Deps are the collaborators of a Handler. Alerts may be nil when no search
// or LLM credentials are configured; the generate endpoint then answers 503.
type Deps struct {
	Alerts    AlertGenerator
	Geo       GeoProcessor
	Incidents IncidentLister
	Reports   ReportStore
	Logger    *log.Logger
}

type Handler struct {
	alerts    AlertGenerator
	geo       GeoProcessor
	incidents IncidentLister
	reports   ReportStore
	logger    *log.Logger

	// afterSpawn observes background geolocation runs.
	afterSpawn func(*task.Handle)
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	return &Handler{
		alerts:    d.Alerts,
		geo:       d.Geo,
		incidents: d.Incidents,
		reports:   d.Reports,
		logger:    d.Logger,
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// queryLimit returns the ?limit value, or 0 when absent or malformed.
func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
