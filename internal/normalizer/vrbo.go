package normalizer

import (
	"regexp"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
)

// vrboNormalizer parses VRBO / HomeAway traveler-message notifications.
//
// Layout: a "Vrbo: <name> has replied to your message" banner, the guest text,
// then a dashed footer with help links and legal text. The subject usually
// carries the property listing number as "Vrbo #<digits>".
type vrboNormalizer struct{}

var (
	vrboBanner     = regexp.MustCompile(`(?i)^vrbo:|has (replied to|sent you) (your|a) message`)
	vrboFooterRule = regexp.MustCompile(`^[-_=]{4,}`)
	vrboFooterText = regexp.MustCompile(`(?i)we're here to help|do not share (contact|payment)|this (email|message) was sent|all rights reserved|vrbo\.com/help`)
	vrboThreadID   = regexp.MustCompile(`(?i)conversation(?:\s+id)?\s*[:#]\s*([A-Za-z0-9-]+)`)
	vrboSubjectID  = regexp.MustCompile(`(?i)vrbo\s*#\s*(\d+)`)
	vrboPropertyID = regexp.MustCompile(`(?i)property\s*#\s*(\d+)`)
)

func (vrboNormalizer) Platform() string { return PlatformVRBO }

func (vrboNormalizer) Detect(msg model.InboundMessage) bool {
	d := senderDomain(msg.From)
	return domainMatches(d, "vrbo.com") || domainMatches(d, "homeaway.com")
}

func (vrboNormalizer) ExtractGuestMessage(msg model.InboundMessage) *model.InboundMessage {
	text := extractGuestLines(msg.Body(),
		func(line string) bool { return vrboBanner.MatchString(line) },
		func(line string) bool {
			return vrboFooterRule.MatchString(line) || vrboFooterText.MatchString(line)
		},
		nil,
	)
	return guestCopy(msg, text)
}

func (vrboNormalizer) ExtractThreadID(body, subject string) string {
	if m := vrboThreadID.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// ExtractPropertyID prefers the listing number from the subject, which VRBO
// includes more reliably than the body.
func (vrboNormalizer) ExtractPropertyID(body, subject string) string {
	if m := vrboSubjectID.FindStringSubmatch(subject); m != nil {
		return m[1]
	}
	if m := vrboPropertyID.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

var _ PropertyIDExtractor = vrboNormalizer{}
