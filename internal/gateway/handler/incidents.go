package handler

import (
	"net/http"

	"safewatch/internal/types"
)

func (h *Handler) HandleListIncidents(w http.ResponseWriter, r *http.Request) {
	if h.incidents == nil {
		writeJSON(w, http.StatusOK, map[string]any{"incidents": []types.IncidentRecord{}})
		return
	}
	recs, err := h.incidents.List(r.Context(), queryLimit(r))
	if err != nil {
		h.logger.Printf("handler: list incidents failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list incidents")
		return
	}
	if recs == nil {
		recs = []types.IncidentRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": recs})
}
