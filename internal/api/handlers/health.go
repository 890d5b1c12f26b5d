package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness and quote cache size
type HealthHandler struct {
	quotes QuoteSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(quotes QuoteSource) *HealthHandler {
	return &HealthHandler{quotes: quotes}
}

// Health returns server health status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]interface{}{
		"success": true,
		"status":  "ok",
		"service": "fundlens",
		"time":    time.Now().Format(time.RFC3339),
	}
	if h.quotes != nil {
		body["cache_size"] = h.quotes.Stats().TotalCount
	}
	respondJSON(w, http.StatusOK, body)
}
