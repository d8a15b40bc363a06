package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/store"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
)

// maxContextLength bounds the property context blob.
const maxContextLength = 32_000

// PropertyHandler serves the property-context read/write endpoints.
type PropertyHandler struct {
	store  *store.KnowledgeStore
	logger *logger.Logger
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(knowledgeStore *store.KnowledgeStore, log *logger.Logger) *PropertyHandler {
	return &PropertyHandler{
		store:  knowledgeStore,
		logger: log,
	}
}

// GetContext handles GET /api/v1/properties/{propertyID}/context
func (h *PropertyHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "property id is required")
		return
	}

	text, err := h.store.GetPropertyContext(r.Context(), propertyID)
	if err != nil {
		h.logger.Error("failed to get property context", zap.String("property_id", propertyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get property context")
		return
	}

	writeJSON(w, http.StatusOK, model.PropertyContextResponse{
		PropertyID: propertyID,
		Context:    text,
	})
}

// PutContext handles PUT /api/v1/properties/{propertyID}/context
func (h *PropertyHandler) PutContext(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "property id is required")
		return
	}

	var req model.PropertyContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Context)
	if len(text) > maxContextLength {
		writeError(w, http.StatusBadRequest, "context exceeds maximum length")
		return
	}

	if err := h.store.StorePropertyContext(r.Context(), propertyID, text); err != nil {
		h.logger.Error("failed to store property context", zap.String("property_id", propertyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store property context")
		return
	}

	writeJSON(w, http.StatusOK, model.PropertyContextResponse{
		PropertyID: propertyID,
		Context:    text,
	})
}
