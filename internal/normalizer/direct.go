package normalizer

import (
	"regexp"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
)

// directNormalizer is the catch-all for guests who email the property
// directly. It matches any sender that is not one of the operator's own
// domains, so host-to-host traffic resolves to no normalizer at all.
type directNormalizer struct {
	operatorDomains []string
}

var (
	quoteMarker = regexp.MustCompile(`(?i)^>|^on .+ wrote:$|^-{2,}\s*original message|^from:\s.+@`)
	sigMarker   = regexp.MustCompile(`(?i)^--\s*$|^sent from my`)
)

func (directNormalizer) Platform() string { return PlatformDirect }

func (n directNormalizer) Detect(msg model.InboundMessage) bool {
	d := senderDomain(msg.From)
	if d == "" {
		return false
	}
	for _, op := range n.operatorDomains {
		if domainMatches(d, op) {
			return false
		}
	}
	return true
}

// ExtractGuestMessage keeps the body up to the first quoted-reply or
// signature marker. Direct mail has no platform banner to strip.
func (directNormalizer) ExtractGuestMessage(msg model.InboundMessage) *model.InboundMessage {
	text := extractGuestLines(msg.Body(),
		func(string) bool { return false },
		func(line string) bool {
			return quoteMarker.MatchString(line) || sigMarker.MatchString(line)
		},
		nil,
	)
	return guestCopy(msg, text)
}

func (directNormalizer) ExtractThreadID(body, subject string) string { return "" }
