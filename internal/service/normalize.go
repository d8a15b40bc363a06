// Package service implements the normalization engine and the ingestion
// pipeline over it.
package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
	"github.com/hostfolio-ai/guest-knowledge/internal/normalizer"
	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
	"github.com/hostfolio-ai/guest-knowledge/pkg/metrics"
)

// NormalizeService turns raw webhook message arrays into knowledge items.
type NormalizeService struct {
	registry *normalizer.Registry
	logger   *logger.Logger
}

// NewNormalizeService creates a normalize service over the given registry.
func NewNormalizeService(registry *normalizer.Registry, log *logger.Logger) *NormalizeService {
	return &NormalizeService{registry: registry, logger: log}
}

func sortedByTimestamp(messages []model.InboundMessage, descending bool) []model.InboundMessage {
	out := make([]model.InboundMessage, len(messages))
	copy(out, messages)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp(), out[j].Timestamp()
		if descending {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
	return out
}

// ExtractLatestGuestMessage returns the most recent message with recoverable
// guest content, with the normalizer that extracted it. A more recent
// host-only message does not suppress an earlier guest message.
func (s *NormalizeService) ExtractLatestGuestMessage(messages []model.InboundMessage) (*model.InboundMessage, normalizer.Normalizer) {
	for _, msg := range sortedByTimestamp(messages, true) {
		n := s.registry.Resolve(msg)
		if n == nil {
			continue
		}
		if guest := n.ExtractGuestMessage(msg); guest != nil {
			metrics.GuestExtractionsTotal.WithLabelValues(n.Platform(), "hit").Inc()
			return guest, n
		}
		metrics.GuestExtractionsTotal.WithLabelValues(n.Platform(), "miss").Inc()
	}
	return nil, nil
}

// BuildFullThreadText renders the thread chronologically for the audit
// trail: a header block then the body per message, plain text preferred over
// HTML. Purely presentational; extraction never reads this.
func (s *NormalizeService) BuildFullThreadText(messages []model.InboundMessage) string {
	blocks := make([]string, 0, len(messages))
	for _, msg := range sortedByTimestamp(messages, false) {
		var b strings.Builder
		fmt.Fprintf(&b, "From: %s\n", msg.From)
		if msg.To != "" {
			fmt.Fprintf(&b, "To: %s\n", msg.To)
		}
		fmt.Fprintf(&b, "Date: %s\n", msg.Date)
		if msg.Subject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(msg.Body()))
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n----------------------------------------\n\n")
}

// Pure-acknowledgment messages that never count as questions, compared after
// lowercasing and trimming punctuation.
var acknowledgments = map[string]struct{}{
	"thanks":             {},
	"thank you":          {},
	"thanks so much":     {},
	"thank you so much":  {},
	"ok":                 {},
	"okay":               {},
	"got it":             {},
	"confirmed":          {},
	"sounds good":        {},
	"perfect":            {},
	"great":              {},
	"will do":            {},
	"no problem":         {},
	"awesome":            {},
}

var questionWords = map[string]struct{}{
	"who": {}, "what": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"which": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"do": {}, "does": {}, "did": {}, "is": {}, "are": {},
}

// minQuestionLength guards the question-word rule against short incidental
// matches like "great, will do".
const minQuestionLength = 20

// HasGuestQuestion classifies guest text as containing a question. Rule
// order is fixed: acknowledgment reject, then question mark, then
// question-word plus length. Tests depend on this exact order.
func HasGuestQuestion(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}

	if _, ok := acknowledgments[strings.Trim(lowered, " \t\r\n.,!?")]; ok {
		return false
	}

	if strings.Contains(lowered, "?") {
		return true
	}

	if len(lowered) > minQuestionLength {
		for _, word := range strings.FieldsFunc(lowered, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
		}) {
			if _, ok := questionWords[word]; ok {
				return true
			}
		}
	}

	return false
}

// NormalizePayload builds a fully-formed knowledge item from a validated
// webhook payload. The id stays empty; the store assigns it. Correlation
// keys resolve by precedence: explicit argument, then payload field, then
// value extracted from message content.
func (s *NormalizeService) NormalizePayload(req *model.IngestRequest, source, propertyID, bookingID string) *model.KnowledgeItem {
	latest, _ := s.ExtractLatestGuestMessage(req.Messages)

	// Platform signals come from the most recent message regardless of
	// whether it carried guest content.
	var platform, platformThreadID, extractedPropertyID string
	if len(req.Messages) > 0 {
		newest := sortedByTimestamp(req.Messages, true)[0]
		if n := s.registry.Resolve(newest); n != nil {
			platform = n.Platform()
			platformThreadID = n.ExtractThreadID(newest.Body(), newest.Subject)
			if pe, ok := n.(normalizer.PropertyIDExtractor); ok {
				extractedPropertyID = pe.ExtractPropertyID(newest.Body(), newest.Subject)
			}
		}
	}

	if source == "" {
		source = req.Source
	}
	if propertyID == "" {
		propertyID = req.PropertyID
	}
	if propertyID == "" {
		propertyID = extractedPropertyID
	}
	if bookingID == "" {
		bookingID = req.BookingID
	}

	ascending := sortedByTimestamp(req.Messages, false)
	timestamps := make([]string, len(ascending))
	for i, msg := range ascending {
		timestamps[i] = msg.Date
	}

	var subject, from, to string
	if len(ascending) > 0 {
		newest := ascending[len(ascending)-1]
		subject, from, to = newest.Subject, newest.From, newest.To
	}

	hasQuestion := false
	if latest != nil {
		hasQuestion = HasGuestQuestion(latest.BodyPlain)
	}

	return &model.KnowledgeItem{
		SchemaVersion:    model.SchemaVersion,
		Source:           source,
		IngestMethod:     "webhook",
		ContentType:      "email_thread",
		CreatedAt:        nowUTC(),
		PropertyID:       propertyID,
		BookingID:        bookingID,
		ExternalThreadID: req.ThreadID,
		Platform:         platform,
		PlatformThreadID: platformThreadID,
		RawPayload:       marshalRaw(req),
		Normalized: model.NormalizedThread{
			LatestGuestMessage: latest,
			FullThreadText:     s.BuildFullThreadText(req.Messages),
			MessageCount:       len(req.Messages),
			Subject:            subject,
			From:               from,
			To:                 to,
			Timestamps:         timestamps,
			HasGuestQuestion:   hasQuestion,
		},
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

func marshalRaw(req *model.IngestRequest) json.RawMessage {
	raw, err := json.Marshal(req)
	if err != nil {
		// The payload just came off the wire as JSON; this cannot happen in
		// practice, and the raw copy is audit-only.
		return nil
	}
	return raw
}
