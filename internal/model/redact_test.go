package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmails(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain address", "guest@example.com", "example.com"},
		{"display name", "Jane Doe <jane.doe@mail.example.org>", "Jane Doe <mail.example.org>"},
		{"embedded in text", "reply to host+42@stay.example please", "reply to stay.example please"},
		{"multiple addresses", "a@one.com, b@two.net", "one.com, two.net"},
		{"no address", "nothing to hide here", "nothing to hide here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmails(tt.in))
		})
	}
}

func TestRedactedDropsRawPayloadAndMasksAddresses(t *testing.T) {
	item := KnowledgeItem{
		ID:         "ki_1",
		RawPayload: json.RawMessage(`{"from":"guest@example.com"}`),
		Normalized: NormalizedThread{
			From:           "guest@example.com",
			To:             "host@stay.example",
			FullThreadText: "From: guest@example.com\nTo: host@stay.example\n\nHello",
			LatestGuestMessage: &InboundMessage{
				From: "guest@example.com",
				To:   "host@stay.example",
				CC:   "cohost@stay.example",
			},
		},
	}

	got := item.Redacted()

	assert.Nil(t, got.RawPayload)
	assert.Equal(t, "example.com", got.Normalized.From)
	assert.Equal(t, "stay.example", got.Normalized.To)
	assert.NotContains(t, got.Normalized.FullThreadText, "guest@")
	assert.Equal(t, "example.com", got.Normalized.LatestGuestMessage.From)
	assert.Equal(t, "stay.example", got.Normalized.LatestGuestMessage.CC)

	// the original is untouched
	assert.NotNil(t, item.RawPayload)
	assert.Equal(t, "guest@example.com", item.Normalized.From)
	assert.Equal(t, "guest@example.com", item.Normalized.LatestGuestMessage.From)
}
