package normalizer

import (
	"regexp"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
)

// airbnbNormalizer parses Airbnb guest-message notifications. The usable text
// sits between the "X sent you a message" banner and the reply call-to-action
// block of links.
type airbnbNormalizer struct{}

var (
	airbnbBanner = regexp.MustCompile(`(?i)(sent you a message|new message from|responded to your (inquiry|request)|^re:\s)`)
	airbnbFooter = regexp.MustCompile(`(?i)^(reply|respond)\b|https?://(www\.)?airbnb\.|airbnb, inc|^[-_=]{4,}|^sent from my`)

	airbnbThreadPath  = regexp.MustCompile(`/messaging/thread/(\d+)|[?&]thread_id=(\d+)`)
	airbnbListingPath = regexp.MustCompile(`/rooms/(\d+)|/listings/(\d+)`)
)

func (airbnbNormalizer) Platform() string { return PlatformAirbnb }

func (airbnbNormalizer) Detect(msg model.InboundMessage) bool {
	return domainMatches(senderDomain(msg.From), "airbnb.com")
}

func (airbnbNormalizer) ExtractGuestMessage(msg model.InboundMessage) *model.InboundMessage {
	text := extractGuestLines(msg.Body(),
		func(line string) bool { return airbnbBanner.MatchString(line) },
		func(line string) bool { return airbnbFooter.MatchString(line) },
		nil,
	)
	return guestCopy(msg, text)
}

func (airbnbNormalizer) ExtractThreadID(body, subject string) string {
	if m := airbnbThreadPath.FindStringSubmatch(body); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}
	return ""
}

func (airbnbNormalizer) ExtractPropertyID(body, subject string) string {
	if m := airbnbListingPath.FindStringSubmatch(body); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}
	return ""
}

var _ PropertyIDExtractor = airbnbNormalizer{}
