package server

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"safewatch/internal/gateway/feed"
	"safewatch/internal/gateway/handler"
	"safewatch/internal/gateway/middleware"
)

// NewRouter mounts the JSON API, the alert feed and the health probe. The
// limiter guards only alert generation, the one route that spends search and
// LLM quota.
func NewRouter(h *handler.Handler, hub *feed.Hub, limiter middleware.Limiter, logger *log.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestLog(logger))

	router.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	if hub != nil {
		router.HandleFunc("/ws/alerts", hub.ServeWS).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/alerts/generate", middleware.RateLimit(limiter, logger)(http.HandlerFunc(h.HandleGenerateAlerts))).Methods(http.MethodPost)
	api.HandleFunc("/geolocation/process", h.HandleGeolocation).Methods(http.MethodPost)
	api.HandleFunc("/incidents", h.HandleListIncidents).Methods(http.MethodGet)
	api.HandleFunc("/reports", h.HandleCreateReport).Methods(http.MethodPost)
	api.HandleFunc("/reports/recent", h.HandleRecentReports).Methods(http.MethodGet)

	return middleware.CORS(router)
}
