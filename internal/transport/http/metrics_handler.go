package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler wraps the Prometheus handler. A nil handler means metrics
// are disabled and the endpoint answers 503.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status":  "disabled",
			"message": "metrics exporter is not enabled",
		})
		return
	}
	h.exporter.ServeHTTP(w, r)
}
