// Package model defines data structures for the guest knowledge platform.
package model

import (
	"time"
)

// InboundMessage is one email message as delivered by the mailbox webhook.
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	CC        string `json:"cc,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Date      string `json:"date"`
	BodyPlain string `json:"bodyPlain,omitempty"`
	BodyHTML  string `json:"bodyHtml,omitempty"`
}

// Body returns the plain-text body, falling back to HTML when plain is absent.
func (m *InboundMessage) Body() string {
	if m.BodyPlain != "" {
		return m.BodyPlain
	}
	return m.BodyHTML
}

// dateLayouts are tried in order when parsing message dates. Mailbox
// forwarders are inconsistent about which one they emit.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
}

// Timestamp parses the message date. Unparseable dates yield the zero time,
// which sorts such messages to the front of the thread.
func (m *InboundMessage) Timestamp() time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, m.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// IngestRequest is the inbound email webhook payload.
type IngestRequest struct {
	SchemaVersion string           `json:"schema_version"`
	Source        string           `json:"source,omitempty"`
	ThreadID      string           `json:"threadId,omitempty"`
	PropertyID    string           `json:"property_id,omitempty"`
	BookingID     string           `json:"booking_id,omitempty"`
	Messages      []InboundMessage `json:"messages"`
}

// IngestResponse is returned to the webhook caller. KnowledgeItemID is only
// present when the storage stage succeeded.
type IngestResponse struct {
	Status           string `json:"status"`
	KnowledgeItemID  string `json:"knowledge_item_id,omitempty"`
	HasSuggestedReply bool  `json:"has_suggested_reply"`
}
