package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"safewatch/internal/incident"
	"safewatch/internal/llm"
	"safewatch/internal/search"
	"safewatch/internal/task"
	"safewatch/internal/types"
)

type generateResponse struct {
	Alerts    []types.Alert `json:"alerts"`
	Query     string        `json:"query"`
	Persisted int           `json:"persisted"`
}

func (h *Handler) HandleGenerateAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "alert generation is not configured")
		return
	}
	var in incident.Request
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.alerts.Generate(r.Context(), in)
	if err != nil {
		status := generateStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Printf("handler: generate alerts for %q failed: %v", in.Location, err)
		}
		writeError(w, status, err.Error())
		return
	}

	alerts := res.Alerts
	if alerts == nil {
		alerts = []types.Alert{}
	}
	writeJSON(w, http.StatusOK, generateResponse{Alerts: alerts, Query: res.Query, Persisted: res.Persisted})
	h.spawnGeolocation(r, res.Query, res.SearchResults)
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, incident.ErrLocationRequired):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrMissingAPIKey), errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// spawnGeolocation runs the fallback pipeline on the same batch after the
// response is written. The request's cancellation does not reach it.
func (h *Handler) spawnGeolocation(r *http.Request, query string, results []types.SearchResult) {
	if h.geo == nil || len(results) == 0 {
		return
	}
	batch := append([]types.SearchResult(nil), results...)
	t := task.Go(r.Context(), "geolocation", func(ctx context.Context) error {
		res := h.geo.Process(ctx, query, batch)
		if !res.Success {
			return fmt.Errorf("geolocation: %s", res.Error)
		}
		return nil
	})
	t.Detach(h.logger)
	if h.afterSpawn != nil {
		h.afterSpawn(t)
	}
}
