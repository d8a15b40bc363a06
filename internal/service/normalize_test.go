package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/normalizer"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
)

func newNormalizeService() *NormalizeService {
	registry := normalizer.NewRegistry([]string{"stayhost.example"})
	return NewNormalizeService(registry, logger.NewNop())
}

const vrboBody = "Vrbo: Alaina Capasso has replied to your message\n\nHi! I was wondering if I can change dates\n\n-------We're here to help..."

func vrboMessage(id, date string) model.InboundMessage {
	return model.InboundMessage{
		ID:        id,
		From:      "Vrbo <no-reply@vrbo.com>",
		To:        "host@stayhost.example",
		Subject:   "Vrbo #4353572 - New message from Alaina",
		Date:      date,
		BodyPlain: vrboBody,
	}
}

func hostMessage(id, date string) model.InboundMessage {
	return model.InboundMessage{
		ID:        id,
		From:      "alerts@stayhost.example",
		Date:      date,
		BodyPlain: "calendar sync completed",
	}
}

func TestExtractLatestGuestMessageSkipsHostOnly(t *testing.T) {
	svc := newNormalizeService()

	// The host-only message is more recent; the guest message must still
	// surface.
	msgs := []model.InboundMessage{
		vrboMessage("m1", "2024-05-01T10:00:00Z"),
		hostMessage("m2", "2024-05-02T09:00:00Z"),
	}

	guest, n := svc.ExtractLatestGuestMessage(msgs)
	require.NotNil(t, guest)
	require.NotNil(t, n)
	assert.Equal(t, "m1", guest.ID)
	assert.Equal(t, normalizer.PlatformVRBO, n.Platform())
}

func TestExtractLatestGuestMessagePrefersMostRecentQualifying(t *testing.T) {
	svc := newNormalizeService()

	older := vrboMessage("m1", "2024-05-01T10:00:00Z")
	newer := vrboMessage("m2", "2024-05-03T10:00:00Z")

	guest, _ := svc.ExtractLatestGuestMessage([]model.InboundMessage{older, newer})
	require.NotNil(t, guest)
	assert.Equal(t, "m2", guest.ID)
}

func TestExtractLatestGuestMessageNoneQualify(t *testing.T) {
	svc := newNormalizeService()
	guest, n := svc.ExtractLatestGuestMessage([]model.InboundMessage{
		hostMessage("m1", "2024-05-01T10:00:00Z"),
	})
	assert.Nil(t, guest)
	assert.Nil(t, n)
}

func TestBuildFullThreadTextChronological(t *testing.T) {
	svc := newNormalizeService()

	msgs := []model.InboundMessage{
		{ID: "m2", From: "b@b.com", Date: "2024-05-02T10:00:00Z", BodyPlain: "second message"},
		{ID: "m3", From: "c@c.com", Date: "2024-05-03T10:00:00Z", BodyPlain: "third message"},
		{ID: "m1", From: "a@a.com", Date: "2024-05-01T10:00:00Z", BodyPlain: "first message"},
	}

	text := svc.BuildFullThreadText(msgs)

	first := strings.Index(text, "first message")
	second := strings.Index(text, "second message")
	third := strings.Index(text, "third message")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestBuildFullThreadTextPrefersPlainOverHTML(t *testing.T) {
	svc := newNormalizeService()

	text := svc.BuildFullThreadText([]model.InboundMessage{
		{ID: "m1", From: "a@a.com", Date: "2024-05-01T10:00:00Z", BodyPlain: "plain body", BodyHTML: "<p>html body</p>"},
		{ID: "m2", From: "b@b.com", Date: "2024-05-02T10:00:00Z", BodyHTML: "<p>html only</p>"},
	})

	assert.Contains(t, text, "plain body")
	assert.NotContains(t, text, "html body")
	assert.Contains(t, text, "<p>html only</p>")
}

func TestHasGuestQuestion(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Thanks!", false},
		{"thank you", false},
		{"OK", false},
		{"Sounds good.", false},
		{"Where is the nearest grocery store?", true},
		{"CHECK-IN procedure?", true},
		{"Can we get a late checkout on Sunday please", true},
		{"how", false},          // question word but too short
		{"great, will do", false}, // short incidental words, no question mark
		{"", false},
		{"We arrive at 9pm and the lockbox code did not work for us", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HasGuestQuestion(tt.text))
		})
	}
}

func TestNormalizePayloadVRBO(t *testing.T) {
	svc := newNormalizeService()

	req := &model.IngestRequest{
		SchemaVersion: "1",
		ThreadID:      "mbx-thread-42",
		Messages:      []model.InboundMessage{vrboMessage("m1", "2024-05-01T10:00:00Z")},
	}

	item := svc.NormalizePayload(req, "email_webhook", "", "")

	assert.Empty(t, item.ID, "id assignment is deferred to the store")
	assert.Equal(t, normalizer.PlatformVRBO, item.Platform)
	assert.Equal(t, "4353572", item.PropertyID)
	assert.Empty(t, item.PlatformThreadID)
	assert.Equal(t, "mbx-thread-42", item.ExternalThreadID)
	assert.Equal(t, "email_webhook", item.Source)

	require.NotNil(t, item.Normalized.LatestGuestMessage)
	assert.Equal(t, "Hi! I was wondering if I can change dates", item.Normalized.LatestGuestMessage.BodyPlain)
	assert.NotContains(t, item.Normalized.LatestGuestMessage.BodyPlain, "We're here to help")
	assert.True(t, item.Normalized.HasGuestQuestion)
	assert.Equal(t, 1, item.Normalized.MessageCount)
	assert.NotEmpty(t, item.RawPayload)
}

func TestNormalizePayloadCorrelationPrecedence(t *testing.T) {
	svc := newNormalizeService()

	req := &model.IngestRequest{
		SchemaVersion: "1",
		PropertyID:    "payload-prop",
		BookingID:     "payload-booking",
		Messages:      []model.InboundMessage{vrboMessage("m1", "2024-05-01T10:00:00Z")},
	}

	// Explicit arguments beat payload fields.
	item := svc.NormalizePayload(req, "", "arg-prop", "arg-booking")
	assert.Equal(t, "arg-prop", item.PropertyID)
	assert.Equal(t, "arg-booking", item.BookingID)

	// Payload fields beat extracted values.
	item = svc.NormalizePayload(req, "", "", "")
	assert.Equal(t, "payload-prop", item.PropertyID)
	assert.Equal(t, "payload-booking", item.BookingID)

	// Extracted value is the fallback.
	req.PropertyID = ""
	item = svc.NormalizePayload(req, "", "", "")
	assert.Equal(t, "4353572", item.PropertyID)
}

func TestNormalizePayloadMessageCountInvariant(t *testing.T) {
	svc := newNormalizeService()

	req := &model.IngestRequest{
		SchemaVersion: "1",
		Messages: []model.InboundMessage{
			vrboMessage("m1", "2024-05-01T10:00:00Z"),
			hostMessage("m2", "2024-05-02T10:00:00Z"),
			hostMessage("m3", "2024-05-03T10:00:00Z"),
		},
	}

	item := svc.NormalizePayload(req, "", "", "")
	assert.Equal(t, len(req.Messages), item.Normalized.MessageCount)
	assert.Len(t, item.Normalized.Timestamps, len(req.Messages))
}
