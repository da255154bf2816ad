package handler

import (
	"net/http"
	"strings"

	"safewatch/internal/geolocation"
	"safewatch/internal/types"
)

type geolocationRequest struct {
	Query         string               `json:"query"`
	SearchResults []types.SearchResult `json:"searchResults"`
}

// HandleGeolocation always answers 200; failure is reported in the body.
func (h *Handler) HandleGeolocation(w http.ResponseWriter, r *http.Request) {
	if h.geo == nil {
		writeJSON(w, http.StatusOK, geolocation.Result{Error: "geolocation is not configured"})
		return
	}
	var in geolocationRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusOK, geolocation.Result{Error: "invalid json body"})
		return
	}
	res := h.geo.Process(r.Context(), strings.TrimSpace(in.Query), in.SearchResults)
	writeJSON(w, http.StatusOK, res)
}
