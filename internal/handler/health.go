package handler

import (
	"net/http"

	natsclient "github.com/hostfolio-ai/guest-knowledge/internal/nats"
	"github.com/hostfolio-ai/guest-knowledge/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	kv         store.KV
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient may be nil when
// notifications run on the logging stub.
func NewHealthHandler(kv store.KV, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		kv:         kv,
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.kv.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "knowledge store not reachable",
		})
		return
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
