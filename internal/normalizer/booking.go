package normalizer

import (
	"regexp"
	"strings"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
)

// bookingNormalizer parses Booking.com partner-hub message notifications.
// Guest lines may carry a "Guest:" role label; host echoes carry "You:" and
// are dropped so only guest-authored text survives.
type bookingNormalizer struct{}

var (
	bookingBanner = regexp.MustCompile(`(?i)^(you have a new message|new message from|a guest (has )?sent)`)
	bookingFooter = regexp.MustCompile(`(?i)^[-_=]{4,}|this is an automated|booking\.com b\.v|^unsubscribe\b|https?://([a-z0-9.-]*\.)?booking\.com`)

	bookingConversation = regexp.MustCompile(`(?i)conversation[/ ]([A-Za-z0-9-]{8,})`)
	bookingPropertyID   = regexp.MustCompile(`(?i)property\s*(?:id)?\s*[:#]\s*(\d+)`)

	guestLabel = regexp.MustCompile(`(?i)^guest\s*:\s*`)
	hostLabel  = regexp.MustCompile(`(?i)^(you|host)\s*:\s*`)
)

func (bookingNormalizer) Platform() string { return PlatformBooking }

func (bookingNormalizer) Detect(msg model.InboundMessage) bool {
	return domainMatches(senderDomain(msg.From), "booking.com")
}

func (bookingNormalizer) ExtractGuestMessage(msg model.InboundMessage) *model.InboundMessage {
	text := extractGuestLines(msg.Body(),
		func(line string) bool { return bookingBanner.MatchString(line) },
		func(line string) bool { return bookingFooter.MatchString(line) },
		func(line string) (string, bool) {
			if hostLabel.MatchString(line) {
				return "", false
			}
			return strings.TrimSpace(guestLabel.ReplaceAllString(line, "")), true
		},
	)
	return guestCopy(msg, text)
}

func (bookingNormalizer) ExtractThreadID(body, subject string) string {
	if m := bookingConversation.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

func (bookingNormalizer) ExtractPropertyID(body, subject string) string {
	if m := bookingPropertyID.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

var _ PropertyIDExtractor = bookingNormalizer{}
