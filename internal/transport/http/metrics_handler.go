package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HubStats reports websocket hub counters.
type HubStats interface {
	GetHubMetrics() map[string]interface{}
}

// MetricsHandler serves the Prometheus scrape endpoint and hub counters
type MetricsHandler struct {
	prometheus http.Handler
	hub        HubStats
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil
// when metrics export is disabled.
func NewMetricsHandler(prometheus http.Handler, hub HubStats) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, hub: hub}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/websocket", h.GetWebSocketMetrics)
	return r
}

// GetMetrics serves the Prometheus exposition format
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics export disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetWebSocketMetrics returns hub counters as JSON
func (h *MetricsHandler) GetWebSocketMetrics(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		render.JSON(w, r, map[string]interface{}{})
		return
	}
	render.JSON(w, r, h.hub.GetHubMetrics())
}
