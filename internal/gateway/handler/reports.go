package handler

import (
	"errors"
	"net/http"

	"safewatch/internal/repository/report"
	"safewatch/internal/types"
)

type reportRequest struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (h *Handler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report store is not configured")
		return
	}
	var in reportRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	id, err := h.reports.Insert(r.Context(), types.CrimeReport{
		Type:        in.Type,
		Severity:    in.Severity,
		Address:     in.Address,
		Description: in.Description,
	})
	if err != nil {
		if errors.Is(err, report.ErrInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Printf("handler: insert report failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store report")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) HandleRecentReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeJSON(w, http.StatusOK, map[string]any{"reports": []types.RecentReport{}})
		return
	}
	reports, err := h.reports.Recent(r.Context(), queryLimit(r))
	if err != nil {
		h.logger.Printf("handler: recent reports failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load reports")
		return
	}
	if reports == nil {
		reports = []types.RecentReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}
