package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/store"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
)

// defaultPropertyLimit caps property retrieval when the caller gives none.
const defaultPropertyLimit = 20

// KnowledgeHandler serves the retrieval endpoints over the indexed store.
// Every item leaving here is redacted: raw payload dropped, addresses
// reduced to domain-only.
type KnowledgeHandler struct {
	store  *store.KnowledgeStore
	logger *logger.Logger
}

// NewKnowledgeHandler creates a new knowledge handler.
func NewKnowledgeHandler(knowledgeStore *store.KnowledgeStore, log *logger.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		store:  knowledgeStore,
		logger: log,
	}
}

// ByThread handles GET /api/v1/knowledge/threads/{threadID}
func (h *KnowledgeHandler) ByThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		writeError(w, http.StatusBadRequest, "thread id is required")
		return
	}

	items, err := h.store.GetThreadItems(r.Context(), threadID)
	if err != nil {
		h.logger.Error("failed to get thread items", zap.String("thread_id", threadID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get thread items")
		return
	}

	writeJSON(w, http.StatusOK, model.ThreadItemsResponse{
		ThreadID: threadID,
		Items:    model.RedactAll(items),
	})
}

// ByBooking handles GET /api/v1/knowledge/bookings/{bookingID}
func (h *KnowledgeHandler) ByBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if bookingID == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	threadIDs, items, err := h.store.GetBookingItems(r.Context(), bookingID)
	if err != nil {
		h.logger.Error("failed to get booking items", zap.String("booking_id", bookingID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get booking items")
		return
	}

	if threadIDs == nil {
		threadIDs = []string{}
	}

	writeJSON(w, http.StatusOK, model.BookingItemsResponse{
		BookingID: bookingID,
		ThreadIDs: threadIDs,
		Items:     model.RedactAll(items),
	})
}

// ByProperty handles GET /api/v1/knowledge/properties/{propertyID}
func (h *KnowledgeHandler) ByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "property id is required")
		return
	}

	limit := defaultPropertyLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	items, err := h.store.GetPropertyItems(r.Context(), propertyID, limit)
	if err != nil {
		h.logger.Error("failed to get property items", zap.String("property_id", propertyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get property items")
		return
	}

	writeJSON(w, http.StatusOK, model.PropertyItemsResponse{
		PropertyID: propertyID,
		Items:      model.RedactAll(items),
	})
}
