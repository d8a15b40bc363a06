// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/service"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
)

// IngestHandler handles the inbound email webhook.
type IngestHandler struct {
	service *service.IngestService
	logger  *logger.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(svc *service.IngestService, log *logger.Logger) *IngestHandler {
	return &IngestHandler{
		service: svc,
		logger:  log,
	}
}

// Ingest handles POST /api/v1/ingest/email
//
// Dependency outages inside the pipeline degrade the response rather than
// failing it; only malformed payloads produce a 400 and only a pipeline bug
// produces a 500.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	outcome, err := h.service.Ingest(ctx, &req, "", "", "")
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeErrorDetails(w, http.StatusBadRequest, "validation failed", verr.Message)
			return
		}
		h.logger.Error("ingestion failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, outcome.Response())
}
