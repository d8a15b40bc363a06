package model

import (
	"regexp"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@([A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)

// MaskEmails reduces every email address in s to its domain. PII-bearing
// fields must pass through this before leaving the service boundary.
func MaskEmails(s string) string {
	return emailPattern.ReplaceAllString(s, "$1")
}

// Redacted returns a copy of the item safe to return from retrieval
// endpoints: the raw payload is dropped and address fields are reduced to
// domain-only.
func (k KnowledgeItem) Redacted() KnowledgeItem {
	out := k
	out.RawPayload = nil
	out.Normalized.From = MaskEmails(k.Normalized.From)
	out.Normalized.To = MaskEmails(k.Normalized.To)
	out.Normalized.FullThreadText = MaskEmails(k.Normalized.FullThreadText)

	if k.Normalized.LatestGuestMessage != nil {
		msg := *k.Normalized.LatestGuestMessage
		msg.From = MaskEmails(msg.From)
		msg.To = MaskEmails(msg.To)
		msg.CC = MaskEmails(msg.CC)
		out.Normalized.LatestGuestMessage = &msg
	}

	return out
}

// RedactAll applies Redacted to a slice of items.
func RedactAll(items []KnowledgeItem) []KnowledgeItem {
	out := make([]KnowledgeItem, len(items))
	for i, item := range items {
		out[i] = item.Redacted()
	}
	return out
}
