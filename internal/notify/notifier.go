// Package notify delivers host notifications about ingested guest messages.
package notify

import (
	"context"
)

// Notification is one host notification: who to tell, about what, with the
// suggested draft attached for one-tap sending downstream.
type Notification struct {
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Draft     string            `json:"draft,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Receipt reports the outcome of a notification attempt.
type Receipt struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Notifier delivers a notification. Implementations may fail independently
// of ingestion; callers treat failure as a degraded-mode outcome.
type Notifier interface {
	Notify(ctx context.Context, n Notification) (*Receipt, error)
}
