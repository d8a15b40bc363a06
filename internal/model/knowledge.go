package model

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the current knowledge item schema version.
const SchemaVersion = "1"

// NormalizedThread is the derived view over one ingested email thread.
type NormalizedThread struct {
	LatestGuestMessage *InboundMessage `json:"latest_guest_message,omitempty"`
	FullThreadText     string          `json:"full_thread_text"`
	MessageCount       int             `json:"message_count"`
	Subject            string          `json:"subject,omitempty"`
	From               string          `json:"from,omitempty"`
	To                 string          `json:"to,omitempty"`
	Timestamps         []string        `json:"timestamps"`
	HasGuestQuestion   bool            `json:"has_guest_question"`
}

// KnowledgeItem is the persisted, normalized record of one ingested email
// thread snapshot. ID is empty until the first successful store and is never
// regenerated afterwards.
type KnowledgeItem struct {
	// Identity
	ID string `json:"id,omitempty"`

	// Provenance
	SchemaVersion string    `json:"schema_version"`
	Source        string    `json:"source"`
	IngestMethod  string    `json:"ingest_method"`
	ContentType   string    `json:"content_type"`
	CreatedAt     time.Time `json:"created_at"`

	// Correlation keys, all optional
	PropertyID       string `json:"property_id,omitempty"`
	BookingID        string `json:"booking_id,omitempty"`
	ExternalThreadID string `json:"external_thread_id,omitempty"`
	Platform         string `json:"platform,omitempty"`
	PlatformThreadID string `json:"platform_thread_id,omitempty"`

	// RawPayload is the original inbound payload, retained verbatim.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`

	Normalized NormalizedThread `json:"normalized"`
}

// ThreadItemsResponse is the response for get-by-thread.
type ThreadItemsResponse struct {
	ThreadID string          `json:"thread_id"`
	Items    []KnowledgeItem `json:"items"`
}

// BookingItemsResponse is the response for get-by-booking.
type BookingItemsResponse struct {
	BookingID string          `json:"booking_id"`
	ThreadIDs []string        `json:"thread_ids"`
	Items     []KnowledgeItem `json:"items"`
}

// PropertyItemsResponse is the response for get-by-property.
type PropertyItemsResponse struct {
	PropertyID string          `json:"property_id"`
	Items      []KnowledgeItem `json:"items"`
}

// PropertyContextRequest carries a property context write.
type PropertyContextRequest struct {
	Context string `json:"context"`
}

// PropertyContextResponse carries a property context read.
type PropertyContextResponse struct {
	PropertyID string `json:"property_id"`
	Context    string `json:"context"`
}
