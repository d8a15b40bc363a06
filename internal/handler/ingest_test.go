package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/normalizer"
	"github.com/hostfolio-ai/guest-knowledge/internal/service"
	"github.com/hostfolio-ai/guest-knowledge/internal/store"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
)

func newTestRouter(t *testing.T) (*chi.Mux, *store.KnowledgeStore) {
	t.Helper()

	log := logger.NewNop()
	kv := store.NewMemoryKV()
	knowledgeStore := store.NewKnowledgeStore(kv, time.Hour, log)
	registry := normalizer.NewRegistry([]string{"stayhost.example"})
	normalizeSvc := service.NewNormalizeService(registry, log)
	ingestSvc := service.NewIngestService(normalizeSvc, knowledgeStore, nil, nil,
		"host@stayhost.example", "email_webhook", log)

	ingestHandler := NewIngestHandler(ingestSvc, log)
	knowledgeHandler := NewKnowledgeHandler(knowledgeStore, log)
	propertyHandler := NewPropertyHandler(knowledgeStore, log)

	r := chi.NewRouter()
	r.Post("/api/v1/ingest/email", ingestHandler.Ingest)
	r.Get("/api/v1/knowledge/threads/{threadID}", knowledgeHandler.ByThread)
	r.Get("/api/v1/knowledge/bookings/{bookingID}", knowledgeHandler.ByBooking)
	r.Get("/api/v1/knowledge/properties/{propertyID}", knowledgeHandler.ByProperty)
	r.Get("/api/v1/properties/{propertyID}/context", propertyHandler.GetContext)
	r.Put("/api/v1/properties/{propertyID}/context", propertyHandler.PutContext)

	return r, knowledgeStore
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ingestPayload() map[string]any {
	return map[string]any{
		"schema_version": "1",
		"threadId":       "mbx-thread-42",
		"booking_id":     "b-77",
		"messages": []map[string]any{
			{
				"id":        "m1",
				"from":      "Vrbo <no-reply@vrbo.com>",
				"to":        "host@stayhost.example",
				"subject":   "Vrbo #4353572 - New message",
				"date":      "2024-05-01T10:00:00Z",
				"bodyPlain": "Vrbo: Alaina Capasso has replied to your message\n\nHi! I was wondering if I can change dates\n\n-------We're here to help...",
			},
		},
	}
}

func TestIngestEndpointSuccess(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/ingest/email", ingestPayload())
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "received", resp.Status)
	assert.NotEmpty(t, resp.KnowledgeItemID)
	assert.False(t, resp.HasSuggestedReply, "no generator configured")
}

func TestIngestEndpointMissingSchemaVersion(t *testing.T) {
	r, _ := newTestRouter(t)

	payload := ingestPayload()
	delete(payload, "schema_version")

	w := postJSON(t, r, "/api/v1/ingest/email", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp["error"])
	assert.Equal(t, "missing required field: schema_version", resp["details"])
}

func TestIngestEndpointMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/email", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThreadRetrievalRedactsPII(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/ingest/email", ingestPayload())
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/threads/mbx-thread-42", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ThreadItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)

	item := resp.Items[0]
	assert.Nil(t, item.RawPayload, "raw payload must not leave the boundary")
	assert.NotContains(t, item.Normalized.From, "no-reply@")
	assert.Contains(t, item.Normalized.From, "vrbo.com")
	assert.NotContains(t, item.Normalized.To, "host@")
}

func TestBookingRetrieval(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/ingest/email", ingestPayload())
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/bookings/b-77", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.BookingItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"mbx-thread-42"}, resp.ThreadIDs)
	assert.Len(t, resp.Items, 1)
}

func TestPropertyRetrievalEmptyForUnknownProperty(t *testing.T) {
	r, knowledgeStore := newTestRouter(t)

	_, err := knowledgeStore.Store(context.Background(), &model.KnowledgeItem{
		SchemaVersion: model.SchemaVersion,
		CreatedAt:     time.Now(),
		PropertyID:    "p1",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/properties/p1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PropertyItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/properties/p2", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
}

func TestPropertyContextRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	body := map[string]string{"context": "Check-in 4pm. Spare key under the planter."}
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/properties/p1/context", bytes.NewReader(data))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/properties/p1/context", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PropertyContextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Check-in 4pm. Spare key under the planter.", resp.Context)
}
